package latex

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const sourceName = "main.tex"

// Typesetter renders LaTeX source to PDF.
type Typesetter interface {
	Typeset(ctx context.Context, source []byte) ([]byte, error)
}

// Exporter renders LaTeX source to a set of HTML files.
type Exporter interface {
	ExportHTML(ctx context.Context, source []byte) (Bundle, error)
}

// ToolError reports a failed toolchain run together with the tail of its output.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ExecTypesetter runs a pdflatex compatible binary.
type ExecTypesetter struct {
	Binary  string
	Passes  int
	Timeout time.Duration
	Log     *zap.Logger
}

// Typeset compiles source in a private temporary directory, which is always removed.
func (t ExecTypesetter) Typeset(ctx context.Context, source []byte) ([]byte, error) {
	dir, err := workDir("latex-pdf-*", source)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	passes := t.Passes
	if passes <= 0 {
		passes = 1
	}
	for i := 0; i < passes; i++ {
		err := run(ctx, t.Timeout, dir, binaryOr(t.Binary, "pdflatex"),
			"-interaction=nonstopmode", "-halt-on-error", "-no-shell-escape", sourceName)
		if err != nil {
			logger(t.Log).Warn("typeset failed", zap.Int("pass", i+1), zap.Error(err))
			return nil, err
		}
	}
	pdf, err := os.ReadFile(filepath.Join(dir, "main.pdf"))
	if err != nil {
		return nil, fmt.Errorf("read typeset output: %w", err)
	}
	return pdf, nil
}

// ExecExporter runs a make4ht compatible binary and collects its output directory.
type ExecExporter struct {
	Binary  string
	Timeout time.Duration
	Log     *zap.Logger
}

// ExportHTML converts source in a private temporary directory, which is always removed.
func (e ExecExporter) ExportHTML(ctx context.Context, source []byte) (Bundle, error) {
	dir, err := workDir("latex-html-*", source)
	if err != nil {
		return Bundle{}, err
	}
	defer os.RemoveAll(dir)

	if err := run(ctx, e.Timeout, dir, binaryOr(e.Binary, "make4ht"), "-d", "html", sourceName); err != nil {
		logger(e.Log).Warn("html export failed", zap.Error(err))
		return Bundle{}, err
	}
	return collect(filepath.Join(dir, "html"))
}

func collect(root string) (Bundle, error) {
	var b Bundle
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b.Files = append(b.Files, File{Name: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return Bundle{}, fmt.Errorf("collect html export: %w", err)
	}
	if len(b.Files) == 0 {
		return Bundle{}, fmt.Errorf("collect html export: no files produced")
	}
	return b, nil
}

func workDir(pattern string, source []byte) (string, error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sourceName), source, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("write source: %w", err)
	}
	return dir, nil
}

func run(ctx context.Context, timeout time.Duration, dir, bin string, args ...string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: filepath.Base(bin), Output: tail(out.Bytes(), 2048), Err: err}
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

func binaryOr(bin, def string) string {
	if bin == "" {
		return def
	}
	return bin
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
