package latex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeTool writes an executable shell script and points TMPDIR at a fresh
// directory so leftover work dirs can be counted.
func fakeTool(t *testing.T, script string) (bin, tmp string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	bin = filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	tmp = t.TempDir()
	t.Setenv("TMPDIR", tmp)
	return bin, tmp
}

func assertNoWorkDirs(t *testing.T, tmp string) {
	t.Helper()
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read tmp: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "latex-pdf-") || strings.HasPrefix(e.Name(), "latex-html-") {
			t.Fatalf("work dir %s was left behind", e.Name())
		}
	}
}

func TestExecTypesetterRunsPassesAndCleansUp(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "passes")
	bin, tmp := fakeTool(t, "echo pass >> "+counter+"\nprintf '%%PDF-fake' > main.pdf\n")

	pdf, err := ExecTypesetter{Binary: bin, Passes: 2, Timeout: 10 * time.Second}.Typeset(context.Background(), []byte("src"))
	if err != nil {
		t.Fatalf("Typeset: %v", err)
	}
	if string(pdf) != "%PDF-fake" {
		t.Fatalf("pdf = %q", pdf)
	}
	runs, err := os.ReadFile(counter)
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if n := strings.Count(string(runs), "pass"); n != 2 {
		t.Fatalf("binary ran %d times, want 2", n)
	}
	assertNoWorkDirs(t, tmp)
}

func TestExecTypesetterFailureKeepsOutputTail(t *testing.T) {
	bin, tmp := fakeTool(t, "head -c 3000 /dev/zero | tr '\\0' x\necho END\nexit 1\n")

	_, err := ExecTypesetter{Binary: bin, Timeout: 10 * time.Second}.Typeset(context.Background(), []byte("src"))
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *ToolError", err)
	}
	if te.Tool != "tool.sh" {
		t.Fatalf("tool = %q", te.Tool)
	}
	if len(te.Output) != 2048 || !strings.HasSuffix(te.Output, "END\n") {
		t.Fatalf("output tail has %d bytes, suffix %q", len(te.Output), te.Output[max(0, len(te.Output)-8):])
	}
	assertNoWorkDirs(t, tmp)
}

func TestExecTypesetterMissingPDF(t *testing.T) {
	bin, tmp := fakeTool(t, "exit 0\n")

	if _, err := (ExecTypesetter{Binary: bin}).Typeset(context.Background(), []byte("src")); err == nil {
		t.Fatalf("expected an error when no pdf is produced")
	}
	assertNoWorkDirs(t, tmp)
}

func TestExecTypesetterTimeout(t *testing.T) {
	bin, tmp := fakeTool(t, "exec sleep 5\n")

	start := time.Now()
	_, err := ExecTypesetter{Binary: bin, Timeout: 100 * time.Millisecond}.Typeset(context.Background(), []byte("src"))
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *ToolError", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("timeout did not stop the tool, took %s", elapsed)
	}
	assertNoWorkDirs(t, tmp)
}

func TestExecExporterCollectsHTMLTree(t *testing.T) {
	bin, tmp := fakeTool(t, "mkdir -p html/css\necho '<p>a</p>' > html/a.html\necho 'p{}' > html/css/s.css\n")

	b, err := ExecExporter{Binary: bin, Timeout: 10 * time.Second}.ExportHTML(context.Background(), []byte("src"))
	if err != nil {
		t.Fatalf("ExportHTML: %v", err)
	}
	got := map[string]string{}
	for _, f := range b.Files {
		got[f.Name] = string(f.Data)
	}
	if len(got) != 2 || got["a.html"] != "<p>a</p>\n" || got["css/s.css"] != "p{}\n" {
		t.Fatalf("files = %v", got)
	}
	assertNoWorkDirs(t, tmp)
}

func TestExecExporterFailures(t *testing.T) {
	cases := map[string]string{
		"tool fails": "echo broken\nexit 1\n",
		"no output":  "mkdir html\n",
		"timeout":    "exec sleep 5\n",
	}
	for name, script := range cases {
		t.Run(name, func(t *testing.T) {
			bin, tmp := fakeTool(t, script)
			_, err := ExecExporter{Binary: bin, Timeout: 100 * time.Millisecond}.ExportHTML(context.Background(), []byte("src"))
			if err == nil {
				t.Fatalf("expected an error")
			}
			assertNoWorkDirs(t, tmp)
		})
	}
}
