/*
Package pdf lays out issued vouchers as a printable document.

PURPOSE:
  One A4 page per voucher: a framed card with the recipient, the
  sequence ("Voucher k of n"), the code, the expiry date and an embedded
  QR image obtained from the token codec. The engine supplies data only;
  layout lives entirely here.
*/
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/warp/voucher-engine/voucher"
)

// Renderer produces voucher documents. It holds the codec so every page
// can embed the scannable image for its code.
type Renderer struct {
	codec voucher.Codec
}

func NewRenderer(codec voucher.Codec) *Renderer {
	return &Renderer{codec: codec}
}

// Render lays out one page per voucher and returns the PDF bytes.
func (r *Renderer) Render(batch []voucher.Voucher) ([]byte, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("render: empty batch")
	}

	doc := fpdf.New("P", "mm", "A4", "")
	w, h := doc.GetPageSize()

	for i, v := range batch {
		doc.AddPage()

		// Card background and frame.
		doc.SetFillColor(242, 242, 242)
		doc.Rect(0, 0, w, h, "F")
		doc.SetDrawColor(51, 51, 51)
		doc.SetLineWidth(0.7)
		doc.Rect(20, 20, w-40, h-40, "D")

		doc.SetTextColor(51, 51, 51)
		doc.SetFont("Helvetica", "B", 32)
		centerText(doc, w, 60, "VOUCHER")

		doc.SetFont("Helvetica", "B", 20)
		centerText(doc, w, 90, "For: "+v.Recipient)

		doc.SetFont("Helvetica", "B", 18)
		centerText(doc, w, 115, fmt.Sprintf("Voucher %d of %d", i+1, len(batch)))
		centerText(doc, w, 140, "Code: "+v.ID)

		doc.SetFont("Helvetica", "", 16)
		centerText(doc, w, 165, "Valid until: "+v.ExpiryDate.String())

		if err := r.embedQR(doc, v.ID, w/2-35, 175, 70); err != nil {
			return nil, err
		}

		doc.SetFont("Helvetica", "", 12)
		centerText(doc, w, h-42, "Present this voucher at checkout")
		centerText(doc, w, h-34, "Single use only")

		doc.SetFont("Helvetica", "", 10)
		centerText(doc, w, h-24, fmt.Sprintf("Page %d of %d", i+1, len(batch)))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) embedQR(doc *fpdf.Fpdf, id string, x, y, size float64) error {
	png, err := r.codec.Encode(id)
	if err != nil {
		return err
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("qr-"+id, opts, bytes.NewReader(png))
	doc.ImageOptions("qr-"+id, x, y, size, size, false, opts, 0, "")
	return doc.Error()
}

func centerText(doc *fpdf.Fpdf, pageWidth, y float64, s string) {
	doc.Text((pageWidth-doc.GetStringWidth(s))/2, y, s)
}

// Filename derives a document name from the recipient, matching the
// naming of the persisted snapshots (spaces collapse to underscores).
func Filename(recipient string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, recipient)
	return "vouchers_" + safe + ".pdf"
}
