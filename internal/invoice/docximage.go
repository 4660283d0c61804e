package invoice

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// replaceDocxImage rewrites one media entry of a rendered DOCX with the
// contents of pngPath. DOCX is a ZIP container, so the document is
// rewritten entry by entry with the image swapped in place.
func replaceDocxImage(docxPath, imageEntry, pngPath string) error {
	src, err := zip.OpenReader(docxPath)
	if err != nil {
		return fmt.Errorf("failed to open document %s: %w", docxPath, err)
	}
	defer src.Close()

	found := false
	for _, f := range src.File {
		if f.Name == imageEntry {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("image entry %s not found in document", imageEntry)
	}

	png, err := os.Open(pngPath)
	if err != nil {
		return fmt.Errorf("failed to open slip image: %w", err)
	}
	defer png.Close()

	tmp, err := os.CreateTemp(os.TempDir(), "docx-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw := zip.NewWriter(tmp)
	for _, f := range src.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			return fmt.Errorf("failed to write document entry %s: %w", f.Name, err)
		}
		if f.Name == imageEntry {
			if _, err := io.Copy(w, png); err != nil {
				return fmt.Errorf("failed to embed slip image: %w", err)
			}
			continue
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to read document entry %s: %w", f.Name, err)
		}
		if _, err := io.Copy(w, r); err != nil {
			r.Close()
			return fmt.Errorf("failed to copy document entry %s: %w", f.Name, err)
		}
		r.Close()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close scratch file: %w", err)
	}
	src.Close()

	if err := os.Rename(tmpPath, docxPath); err != nil {
		// cross-device rename falls back to copy
		data, rerr := os.ReadFile(tmpPath)
		if rerr != nil {
			return fmt.Errorf("failed to replace document: %w", err)
		}
		if werr := os.WriteFile(docxPath, data, 0o644); werr != nil {
			return fmt.Errorf("failed to replace document: %w", werr)
		}
	}
	return nil
}
