package invoice

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeDocx builds a minimal DOCX-shaped ZIP container
func writeFakeDocx(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	zw := zip.NewWriter(out)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func readZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func TestReplaceDocxImage(t *testing.T) {
	docx := writeFakeDocx(t, map[string]string{
		"word/document.xml":     "<w:document/>",
		"word/media/image1.png": "placeholder",
	})
	png := filepath.Join(t.TempDir(), "slip.png")
	require.NoError(t, os.WriteFile(png, []byte("rendered-slip"), 0o644))

	require.NoError(t, replaceDocxImage(docx, "word/media/image1.png", png))

	assert.Equal(t, "rendered-slip", readZipEntry(t, docx, "word/media/image1.png"))
	assert.Equal(t, "<w:document/>", readZipEntry(t, docx, "word/document.xml"),
		"other entries survive the rewrite")
}

func TestReplaceDocxImage_MissingEntry(t *testing.T) {
	docx := writeFakeDocx(t, map[string]string{"word/document.xml": "<w:document/>"})
	png := filepath.Join(t.TempDir(), "slip.png")
	require.NoError(t, os.WriteFile(png, []byte("x"), 0o644))

	err := replaceDocxImage(docx, "word/media/image1.png", png)
	assert.Error(t, err)
}
