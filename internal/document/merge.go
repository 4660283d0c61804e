package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MergePDFs merges the given PDFs into one file at outPath. Every input
// must exist; the per-payer batch loop guarantees the order.
func MergePDFs(pdfFiles []string, outPath string) error {
	if len(pdfFiles) == 0 {
		return fmt.Errorf("no pdf files to merge")
	}
	for _, f := range pdfFiles {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("pdf not found: %s", f)
		}
	}
	if err := api.MergeCreateFile(pdfFiles, outPath, false, nil); err != nil {
		return fmt.Errorf("failed to merge pdfs into %s: %w", filepath.Base(outPath), err)
	}
	return nil
}
