package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gomc/website/listing"
	"github.com/gomc/website/models"
	"github.com/gomc/website/testutil"
)

func saveUpload(t *testing.T, s *UploadStore, version string) uint {
	t.Helper()
	u := &models.LatexUpload{
		AuthorID: 1,
		Version:  version,
		Pdf:      []byte("%PDF-" + version),
		HtmlZip:  []byte("PK-" + version),
		Created:  time.Now(),
	}
	if err := s.Save(context.Background(), u); err != nil {
		t.Fatalf("save: %v", err)
	}
	return u.ID
}

func countPublished(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.LatexUpload{}).Where("published = ?", true).Count(&n).Error; err != nil {
		t.Fatalf("count published: %v", err)
	}
	return n
}

func TestPublishMovesFlag(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewUploadStore(db)
	ctx := context.Background()
	a := saveUpload(t, s, "v1")
	b := saveUpload(t, s, "v2")

	if res, err := s.Publish(ctx, a); err != nil || res != PublishSuccess {
		t.Fatalf("publish a = %v, %v", res, err)
	}
	if res, err := s.Publish(ctx, b); err != nil || res != PublishSuccess {
		t.Fatalf("publish b = %v, %v", res, err)
	}
	if n := countPublished(t, db); n != 1 {
		t.Fatalf("published rows = %d, want 1", n)
	}
	live, err := s.Published(ctx)
	if err != nil || live.ID != b {
		t.Fatalf("published = %+v, %v; want id %d", live, err, b)
	}
}

func TestPublishUnknownID(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewUploadStore(db)
	a := saveUpload(t, s, "v1")
	if _, err := s.Publish(context.Background(), a); err != nil {
		t.Fatalf("publish: %v", err)
	}

	res, err := s.Publish(context.Background(), a+10)
	if err != nil || res != PublishNotFound {
		t.Fatalf("publish unknown = %v, %v", res, err)
	}
	live, err := s.Published(context.Background())
	if err != nil || live.ID != a {
		t.Fatalf("failed publish must not change the live upload: %+v, %v", live, err)
	}
}

func TestPublishConcurrentLeavesExactlyOne(t *testing.T) {
	db := testutil.OpenDB(t)
	s := NewUploadStore(db)
	a := saveUpload(t, s, "v1")
	b := saveUpload(t, s, "v2")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := a
		if i%2 == 1 {
			id = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Publish(context.Background(), id); err != nil {
				t.Errorf("publish %d: %v", id, err)
			}
		}()
	}
	wg.Wait()

	if n := countPublished(t, db); n != 1 {
		t.Fatalf("published rows = %d, want 1", n)
	}
}

func TestArtifactAndCatalog(t *testing.T) {
	s := NewUploadStore(testutil.OpenDB(t))
	ctx := context.Background()
	id := saveUpload(t, s, "v1")
	saveUpload(t, s, "v2")

	pdf, err := s.Artifact(ctx, id, ArtifactPdf)
	if err != nil || string(pdf) != "%PDF-v1" {
		t.Fatalf("pdf = %q, %v", pdf, err)
	}
	zip, err := s.Artifact(ctx, id, ArtifactHtmlZip)
	if err != nil || string(zip) != "PK-v1" {
		t.Fatalf("zip = %q, %v", zip, err)
	}
	if _, err := s.Artifact(ctx, id+50, ArtifactPdf); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing artifact err = %v", err)
	}
	if _, err := s.PublishedArtifact(ctx, ArtifactPdf); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no published upload err = %v", err)
	}

	items, total, err := s.Catalog(ctx, listing.Page{Index: 0, Length: 1})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if total != 2 || len(items) != 1 || items[0].Version != "v2" {
		t.Fatalf("catalog = %+v total %d", items, total)
	}
}

func TestParseArtifactKind(t *testing.T) {
	if k, err := ParseArtifactKind("HtmlZip"); err != nil || k != ArtifactHtmlZip {
		t.Fatalf("HtmlZip = %v, %v", k, err)
	}
	if k, err := ParseArtifactKind("0"); err != nil || k != ArtifactPdf {
		t.Fatalf("0 = %v, %v", k, err)
	}
	if _, err := ParseArtifactKind("docx"); !errors.Is(err, ErrUnknownArtifact) {
		t.Fatalf("docx err = %v", err)
	}
}
