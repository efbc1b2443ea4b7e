package latex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gomc/website/metrics"
	"github.com/gomc/website/models"
)

// Result is the outcome reported to the uploading client.
type Result int

const (
	Success Result = iota
	BadSession
	SessionExpired
	MissingVersion
	MissingFile
	InvalidFormat
	InvalidVersion
)

var resultNames = [...]string{
	"Success", "BadSession", "SessionExpired", "MissingVersion",
	"MissingFile", "InvalidFormat", "InvalidVersion",
}

func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "Unknown"
	}
	return resultNames[r]
}

// MarshalJSON renders the result name.
func (r Result) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// Request is one conversion. HasFile is false when no file part was uploaded.
type Request struct {
	Source   []byte
	HasFile  bool
	Version  string
	AuthorID uint
}

// Outcome is the result of Convert; UploadID is set on Success only.
type Outcome struct {
	Result   Result `json:"result"`
	UploadID uint   `json:"upload_id,omitempty"`
}

// Saver persists a finished upload and assigns its ID.
type Saver interface {
	Save(ctx context.Context, u *models.LatexUpload) error
}

// Pipeline validates, typesets, exports and stores one document per call.
type Pipeline struct {
	Typesetter Typesetter
	Exporter   Exporter
	Saver      Saver
	Now        func() time.Time
	Log        *zap.Logger
}

// Convert runs the pipeline. Classified failures come back as an Outcome with
// a nil error; only a failed Save is returned as an error. Nothing is stored
// unless every earlier stage succeeded.
func (p *Pipeline) Convert(ctx context.Context, req Request) (out Outcome, err error) {
	log := logger(p.Log)
	defer func() {
		if err == nil {
			metrics.ConversionsTotal.WithLabelValues(out.Result.String()).Inc()
		} else {
			metrics.ConversionsTotal.WithLabelValues("error").Inc()
		}
	}()

	switch {
	case req.Version == "":
		return Outcome{Result: MissingVersion}, nil
	case !ValidVersion(req.Version):
		return Outcome{Result: InvalidVersion}, nil
	case !req.HasFile:
		return Outcome{Result: MissingFile}, nil
	}

	if err := Validate(req.Source); err != nil {
		log.Info("rejected latex upload", zap.String("version", req.Version), zap.Error(err))
		return Outcome{Result: InvalidFormat}, nil
	}

	var pdf []byte
	err = stage("typeset", func() (e error) {
		pdf, e = p.Typesetter.Typeset(ctx, req.Source)
		return e
	})
	if err != nil {
		log.Warn("typeset stage failed", zap.String("version", req.Version), zap.Error(err))
		return Outcome{Result: InvalidFormat}, nil
	}

	var htmlZip []byte
	err = stage("export", func() error {
		bundle, e := p.Exporter.ExportHTML(ctx, req.Source)
		if e != nil {
			return e
		}
		htmlZip, e = bundle.Zip()
		return e
	})
	if err != nil {
		log.Warn("html export stage failed", zap.String("version", req.Version), zap.Error(err))
		return Outcome{Result: InvalidFormat}, nil
	}

	upload := &models.LatexUpload{
		AuthorID: req.AuthorID,
		Version:  req.Version,
		Pdf:      pdf,
		HtmlZip:  htmlZip,
		Created:  p.now(),
	}
	if err := stage("store", func() error { return p.Saver.Save(ctx, upload) }); err != nil {
		return Outcome{}, fmt.Errorf("store converted document: %w", err)
	}
	log.Info("latex upload stored",
		zap.Uint("upload_id", upload.ID),
		zap.String("version", req.Version),
		zap.Int("pdf_bytes", len(pdf)),
		zap.Int("zip_bytes", len(htmlZip)))
	return Outcome{Result: Success, UploadID: upload.ID}, nil
}

func stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ConversionStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
