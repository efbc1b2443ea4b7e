package latex

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// File is one file of an HTML export, named relative to the export root.
type File struct {
	Name string
	Data []byte
}

// Bundle is the set of files an HTML export produced.
type Bundle struct {
	Files []File
}

// Zip packs the bundle into a zip archive with entries in name order.
func (b Bundle) Zip() ([]byte, error) {
	files := make([]File, len(b.Files))
	copy(files, b.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		name := strings.TrimPrefix(strings.ReplaceAll(f.Name, "\\", "/"), "/")
		if name == "" || strings.HasPrefix(name, "../") || strings.Contains(name, "/../") {
			return nil, fmt.Errorf("zip html bundle: unsafe entry name %q", f.Name)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("zip html bundle: %w", err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip html bundle: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip html bundle: %w", err)
	}
	return buf.Bytes(), nil
}
