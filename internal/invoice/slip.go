package invoice

import (
	"fmt"
	"path/filepath"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Slip geometry, matching the print area reserved in the invoice template
const (
	slipWidth  = 1800
	slipHeight = 900
	slipMargin = 60
	qrSize     = 300
)

// SlipRenderer draws the payment slip PNG: receipt half on the left,
// payment part with QR code on the right.
type SlipRenderer struct {
	fontDir  string
	currency string
	logger   *zap.Logger
}

// NewSlipRenderer creates a slip renderer. fontDir should hold the
// calibri faces; rendering falls back to a builtin face when it does not.
func NewSlipRenderer(fontDir, currency string, logger *zap.Logger) *SlipRenderer {
	return &SlipRenderer{fontDir: fontDir, currency: currency, logger: logger}
}

// slipLine is one label/value pair of a slip column
type slipLine struct {
	label string
	value string
}

// Render draws the slip for the invoice context into outPNG
func (s *SlipRenderer) Render(ctx *Context, costColumn, outPNG string) error {
	dc := gg.NewContext(slipWidth, slipHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	regular := s.loadFace("calibri.ttf", 36)
	bold := s.loadFace("calibrib.ttf", 48)
	smallBold := s.loadFace("calibrib.ttf", 28)

	// separators: vertical between the halves, horizontal along the top
	dc.SetLineWidth(3)
	dc.DrawLine(slipWidth/2, slipMargin, slipWidth/2, slipHeight-slipMargin)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawLine(slipMargin, slipMargin, slipWidth-slipMargin, slipMargin)
	dc.Stroke()

	provider := ctx.Provider
	payer := ctx.Payer
	total := ctx.CostTotal(costColumn).StringFixed(2)

	receipt := []slipLine{
		{"Konto / Zahlbar an", provider.IBAN},
		{"", provider.Name},
		{"", provider.Street},
		{"", provider.ZipCity},
		{"Zahlbar durch", payer.Name},
		{"", payer.Street},
		{"", payer.ZipCity},
		{"Währung", s.currency},
		{"Betrag", total},
	}
	payment := []slipLine{
		{"Konto / Zahlbar an", provider.IBAN},
		{"", provider.Name},
		{"", provider.Street},
		{"", provider.ZipCity},
		{"Zusätzliche Informationen", ctx.InvoiceID},
		{"Zahlbar durch", payer.Name},
		{"", payer.Street},
		{"", payer.ZipCity},
		{"Währung", s.currency},
		{"Betrag", total},
	}

	s.drawColumn(dc, 80, 100, "Empfangsschein", receipt, regular, bold, smallBold)
	s.drawColumn(dc, slipWidth/2+80, 100, "Zahlteil", payment, regular, bold, smallBold)

	qr, err := qrcode.New(s.qrPayload(ctx, costColumn), qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to build qr code: %w", err)
	}
	dc.DrawImage(qr.Image(qrSize), slipWidth-350, slipHeight/2-qrSize/2)

	if err := dc.SavePNG(outPNG); err != nil {
		return fmt.Errorf("failed to save payment slip %s: %w", filepath.Base(outPNG), err)
	}
	return nil
}

// drawColumn renders a titled label/value stack
func (s *SlipRenderer) drawColumn(dc *gg.Context, x, y float64, title string, lines []slipLine, regular, bold, smallBold font.Face) {
	dc.SetFontFace(bold)
	dc.DrawString(title, x, y)
	y += 60
	for _, line := range lines {
		if line.label != "" {
			y += 10
			dc.SetFontFace(smallBold)
			dc.DrawString(line.label, x, y)
			y += 30
		}
		dc.SetFontFace(regular)
		dc.DrawString(line.value, x, y)
		y += 40
	}
}

// qrPayload builds the SPC payment payload encoded in the QR code
func (s *SlipRenderer) qrPayload(ctx *Context, costColumn string) string {
	provider := ctx.Provider
	payer := ctx.Payer
	return fmt.Sprintf("SPC\n0200\n1\n%s\n%s\n%s\n%s\n%s\n%s\nNON\n%s\n%s\n%s\n%s\n",
		provider.IBAN, provider.Name, provider.Street, provider.ZipCity,
		ctx.CostTotal(costColumn).StringFixed(2), s.currency,
		ctx.InvoiceID,
		payer.Name, payer.Street, payer.ZipCity,
	)
}

// loadFace loads a truetype face from the font directory, falling back
// to the builtin face when the font is not installed.
func (s *SlipRenderer) loadFace(name string, size float64) font.Face {
	face, err := gg.LoadFontFace(filepath.Join(s.fontDir, name), size)
	if err != nil {
		s.logger.Debug("Font not available, using builtin face",
			zap.String("font", name))
		return basicfont.Face7x13
	}
	return face
}
