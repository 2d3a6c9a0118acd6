package catalog

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/elhueso/huesobot/internal/model/catalog"
)

// Catalog layout metrics, in points on an A4 page.
const (
	pageMargin = 40.0
	rowHeight  = 20.0
	headerH    = 100.0
	footerH    = 30.0
	colGap     = 16.0
)

var (
	colorNavy   = [3]int{27, 42, 74}
	colorOrange = [3]int{232, 132, 44}
	colorRowBG  = [3]int{248, 249, 250}
	colorText   = [3]int{26, 26, 26}
	colorSubtle = [3]int{107, 114, 128}
	colorBorder = [3]int{229, 231, 235}
)

// Renderer builds the branded two-column PDF catalog.
type Renderer struct{}

// NewRenderer returns a catalog Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Catalog renders the product list into PDF bytes.
func (r *Renderer) Catalog(products []catalog.Product) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - pageMargin*2
	colW := (contentW - colGap) / 2
	usableH := pageH - pageMargin - headerH - footerH
	rowsPerCol := int(usableH / rowHeight)
	rowsPerPage := rowsPerCol * 2

	totalPages := (len(products) + rowsPerPage - 1) / rowsPerPage
	if totalPages == 0 {
		totalPages = 1
	}

	for page := 0; page < totalPages; page++ {
		pdf.AddPage()
		r.drawHeader(pdf, tr, pageW, contentW)
		r.drawFooter(pdf, tr, pageW, pageH)

		start := page * rowsPerPage
		end := min(start+rowsPerPage, len(products))
		pageProducts := products[start:end]

		split := min(rowsPerCol, len(pageProducts))
		r.drawColumn(pdf, tr, pageProducts[:split], pageMargin, colW)
		r.drawColumn(pdf, tr, pageProducts[split:], pageMargin+colW+colGap, colW)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("catalog: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeader(pdf *fpdf.Fpdf, tr func(string) string, pageW, contentW float64) {
	pdf.SetFillColor(colorNavy[0], colorNavy[1], colorNavy[2])
	pdf.Rect(0, 0, pageW, headerH, "F")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(pageMargin, 40, tr("DISTRIBUIDORA EL HUESO"))

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colorOrange[0], colorOrange[1], colorOrange[2])
	pdf.Text(pageMargin, 58, tr("Catálogo de Productos"))

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(148, 163, 184)
	pdf.Text(pageMargin, 74, tr("Actualizado: "+time.Now().Format("02/01/2006")))

	pdf.SetFillColor(colorOrange[0], colorOrange[1], colorOrange[2])
	pdf.Rect(0, headerH, pageW, 3, "F")
}

func (r *Renderer) drawFooter(pdf *fpdf.Fpdf, tr func(string) string, pageW, pageH float64) {
	pdf.SetDrawColor(colorBorder[0], colorBorder[1], colorBorder[2])
	pdf.Line(pageMargin, pageH-footerH, pageW-pageMargin, pageH-footerH)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(colorSubtle[0], colorSubtle[1], colorSubtle[2])
	pdf.Text(pageMargin, pageH-footerH+15, tr("Distribuidora El Hueso"))

	label := tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo()))
	pdf.Text(pageW-pageMargin-pdf.GetStringWidth(label), pageH-footerH+15, label)
}

func (r *Renderer) drawColumn(pdf *fpdf.Fpdf, tr func(string) string, products []catalog.Product, x, w float64) {
	y := headerH + pageMargin

	for i, p := range products {
		if i%2 == 0 {
			pdf.SetFillColor(colorRowBG[0], colorRowBG[1], colorRowBG[2])
			pdf.Rect(x, y, w, rowHeight, "F")
		}

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(colorText[0], colorText[1], colorText[2])

		price := p.SalePrice
		priceW := pdf.GetStringWidth(price)
		titleW := w - priceW - 12

		title := []rune(p.Title)
		for pdf.GetStringWidth(tr(string(title))) > titleW && len(title) > 1 {
			title = title[:len(title)-1]
		}
		pdf.Text(x+4, y+rowHeight-6, tr(string(title)))

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetTextColor(colorNavy[0], colorNavy[1], colorNavy[2])
		pdf.Text(x+w-priceW-4, y+rowHeight-6, price)

		y += rowHeight
	}
}
