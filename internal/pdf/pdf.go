// Package pdf renders order documents as single-page PDFs. The writer
// emits a minimal PDF 1.4 file by hand: one page, one Helvetica font,
// one text content stream. That is enough for a printable order sheet
// without pulling in a rendering engine.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/northpeak/logistics-api/internal/domain"
)

const (
	pageWidth  = 595 // A4 portrait, points
	pageHeight = 842
	marginLeft = 50
	topStart   = 792
	leading    = 14
)

// Renderer builds order documents.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderOrder produces the PDF bytes for one order.
func (r *Renderer) RenderOrder(order *domain.OrderDTO) ([]byte, error) {
	lines := orderLines(order)
	return writePDF(lines)
}

func orderLines(o *domain.OrderDTO) []string {
	lines := []string{
		"NorthPeak Logistics",
		fmt.Sprintf("Order %s", o.CustomID),
		"",
	}

	if o.Client != nil {
		lines = append(lines,
			fmt.Sprintf("Client: %s (%s)", o.Client.CompanyName, o.Client.ClientName),
			fmt.Sprintf("Phone: %s", o.Client.PhoneNumber),
		)
		if o.Client.TaxNumber != "" {
			lines = append(lines, fmt.Sprintf("Tax number: %s", o.Client.TaxNumber))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		fmt.Sprintf("Delivery date: %s", o.DeliveryDate),
		fmt.Sprintf("Delivery type: %s", o.DeliveryType),
		fmt.Sprintf("Status: %s", o.Status),
		"",
		"Items:",
	)

	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf("  %s / %s  x%d @ %.2f  vat %.2f  subtotal %.2f",
			item.Section, item.Type, item.Quantity, item.Price, item.VAT, item.Subtotal))
	}

	lines = append(lines,
		"",
		fmt.Sprintf("Total price:    %.2f", o.TotalPrice),
		fmt.Sprintf("Total VAT:      %.2f", o.TotalVAT),
		fmt.Sprintf("Total subtotal: %.2f", o.TotalSubtotal),
	)

	if o.Notes != "" {
		lines = append(lines, "", "Notes: "+o.Notes)
	}

	return lines
}

// writePDF assembles the document: catalog, page tree, one page, the
// content stream and the font, then the xref table with exact byte
// offsets.
func writePDF(lines []string) ([]byte, error) {
	var content bytes.Buffer
	content.WriteString(fmt.Sprintf("BT /F1 11 Tf %d TL %d %d Td\n", leading, marginLeft, topStart))
	for _, line := range lines {
		content.WriteString(fmt.Sprintf("(%s) Tj T*\n", escapeText(line)))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
			pageWidth, pageHeight),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj))
	}

	xrefStart := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(objects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart))

	return buf.Bytes(), nil
}

// escapeText escapes the characters PDF string literals reserve
func escapeText(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`(`, `\(`,
		`)`, `\)`,
	)
	return replacer.Replace(s)
}
