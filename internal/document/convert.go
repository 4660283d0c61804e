// Package document drives the output side of a batch run: PDF
// conversion through a headless office suite, PDF verification and
// merging, the summary workbook and the ZIP archive.
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// convertTimeout bounds one LibreOffice invocation
const convertTimeout = 2 * time.Minute

// Converter turns rendered DOCX invoices into PDFs via LibreOffice
type Converter struct {
	binary string
	logger *zap.Logger
}

// NewConverter creates a converter. binary defaults to "libreoffice".
func NewConverter(binary string, logger *zap.Logger) *Converter {
	if binary == "" {
		binary = "libreoffice"
	}
	return &Converter{binary: binary, logger: logger}
}

// ToPDF converts a DOCX file into outDir and renames the result to
// targetName (without extension). Returns the final PDF path.
func (c *Converter) ToPDF(ctx context.Context, docxPath, outDir, targetName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, convertTimeout)
	defer cancel()

	cmd := newCommand(ctx, c.binary,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		docxPath,
	)
	if err := cmd.Run(); err != nil {
		c.logger.Error("PDF conversion failed",
			zap.String("docx", docxPath),
			zap.Error(err))
		return "", fmt.Errorf("pdf conversion failed for %s: %w", filepath.Base(docxPath), err)
	}

	stem := strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))
	generated := filepath.Join(outDir, stem+".pdf")
	target := filepath.Join(outDir, targetName+".pdf")
	if err := os.Rename(generated, target); err != nil {
		return "", fmt.Errorf("failed to rename generated pdf: %w", err)
	}

	c.logger.Debug("PDF generated", zap.String("pdf", filepath.Base(target)))
	return target, nil
}

// Verify opens a generated PDF and checks it holds at least one page.
// LibreOffice exits zero on some conversion failures, so the pipeline
// does not trust the exit code alone.
func Verify(path string) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("generated pdf %s is unreadable: %w", filepath.Base(path), err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return fmt.Errorf("generated pdf %s has no pages", filepath.Base(path))
	}
	return nil
}
