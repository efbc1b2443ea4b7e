package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/latex"
	"github.com/gomc/website/metrics"
	"github.com/gomc/website/middleware"
	"github.com/gomc/website/session"
	"github.com/gomc/website/store"
	"github.com/gomc/website/utils"
)

// LatexController converts uploads and serves the stored artifacts.
type LatexController struct {
	auth     middleware.Authenticator
	pipeline *latex.Pipeline
	uploads  *store.UploadStore
	maxBytes int64
}

// NewLatexController creates a LatexController. Upload bodies above maxBytes
// are rejected; zero disables the limit.
func NewLatexController(auth middleware.Authenticator, p *latex.Pipeline, uploads *store.UploadStore, maxBytes int64) *LatexController {
	return &LatexController{auth: auth, pipeline: p, uploads: uploads, maxBytes: maxBytes}
}

var convertStatus = map[latex.Result]struct {
	status int
	code   int
	msg    string
}{
	latex.BadSession:     {http.StatusUnauthorized, 40110, "session invalid"},
	latex.SessionExpired: {http.StatusUnauthorized, 40111, "session expired"},
	latex.MissingVersion: {http.StatusBadRequest, 40050, "version is required"},
	latex.InvalidVersion: {http.StatusBadRequest, 40051, "version may only contain letters, digits, '.', '_' and '-'"},
	latex.MissingFile:    {http.StatusBadRequest, 40052, "file is required"},
	latex.InvalidFormat:  {http.StatusUnprocessableEntity, 42250, "document could not be converted"},
}

// Convert accepts a multipart upload with a "file" part and a "version"
// field. It authenticates on its own so session failures are reported as
// conversion results.
func (l *LatexController) Convert(ctx *gin.Context) {
	token, _ := ctx.Cookie(session.CookieName)
	st := l.auth.Authenticate(ctx.Request.Context(), token)
	switch st.Result {
	case session.SessionExpired:
		l.respond(ctx, latex.Outcome{Result: latex.SessionExpired})
		return
	case session.SessionInvalid:
		l.respond(ctx, latex.Outcome{Result: latex.BadSession})
		return
	}

	if l.maxBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, l.maxBytes)
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41350, "upload too large")
			return
		}
		l.respond(ctx, latex.Outcome{Result: latex.MissingVersion})
		return
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			utils.Sugar.Warnf("remove multipart temp files failed: %v", err)
		}
	}()

	req := latex.Request{AuthorID: st.LoginID}
	if v := form.Value["version"]; len(v) > 0 {
		req.Version = v[0]
	}
	if fh := uploadedFile(form); fh != nil {
		src, err := readPart(fh)
		if err != nil {
			utils.Sugar.Warnf("read uploaded latex file failed: %v", err)
		} else {
			req.Source, req.HasFile = src, true
		}
	}

	out, err := l.pipeline.Convert(ctx.Request.Context(), req)
	if err != nil {
		utils.Sugar.Errorf("latex conversion failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to store converted document")
		return
	}
	l.respond(ctx, out)
}

func (l *LatexController) respond(ctx *gin.Context, out latex.Outcome) {
	if out.Result == latex.Success {
		utils.Success(ctx, out)
		return
	}
	s := convertStatus[out.Result]
	utils.Fail(ctx, s.status, s.code, s.msg, out)
}

// uploadedFile prefers the "file" part and falls back to the first file sent.
func uploadedFile(form *multipart.Form) *multipart.FileHeader {
	if fhs := form.File["file"]; len(fhs) > 0 {
		return fhs[0]
	}
	for _, fhs := range form.File {
		if len(fhs) > 0 {
			return fhs[0]
		}
	}
	return nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Uploads lists the stored conversions without their artifacts.
func (l *LatexController) Uploads(ctx *gin.Context) {
	page := defaultPage()
	if err := bindOptionalJSON(ctx, &page); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	items, total, err := l.uploads.Catalog(ctx.Request.Context(), page)
	if err != nil {
		utils.Sugar.Errorf("list uploads failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list uploads")
		return
	}
	utils.Success(ctx, listPayload(items, total, page))
}

// Download streams one artifact of an upload.
func (l *LatexController) Download(ctx *gin.Context) {
	id, ok := queryUint(ctx, "latexId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40053, "invalid latexId")
		return
	}
	kind, err := store.ParseArtifactKind(ctx.Query("kind"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40054, "kind must be Pdf or HtmlZip")
		return
	}
	b, err := l.uploads.Artifact(ctx.Request.Context(), id, kind)
	l.sendArtifact(ctx, kind, b, err)
}

// Published streams one artifact of the published upload.
func (l *LatexController) Published(ctx *gin.Context) {
	kind, err := store.ParseArtifactKind(ctx.DefaultQuery("kind", string(store.ArtifactPdf)))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40054, "kind must be Pdf or HtmlZip")
		return
	}
	b, err := l.uploads.PublishedArtifact(ctx.Request.Context(), kind)
	l.sendArtifact(ctx, kind, b, err)
}

func (l *LatexController) sendArtifact(ctx *gin.Context, kind store.ArtifactKind, b []byte, err error) {
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40450, "upload not found")
		return
	}
	if err != nil {
		utils.Sugar.Errorf("load artifact failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load artifact")
		return
	}
	utils.Attachment(ctx, kind.Filename(), b)
}

// Publish makes an upload the published one.
func (l *LatexController) Publish(ctx *gin.Context) {
	id, ok := queryUint(ctx, "latexId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40053, "invalid latexId")
		return
	}
	res, err := l.uploads.Publish(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("publish upload failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to publish upload")
		return
	}
	metrics.PublishedTotal.WithLabelValues(res.String()).Inc()
	if res == store.PublishNotFound {
		utils.Fail(ctx, http.StatusNotFound, 40450, "upload not found", gin.H{"result": res})
		return
	}
	utils.Success(ctx, gin.H{"result": res})
}
