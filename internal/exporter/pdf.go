package exporter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"product-admin/internal/models"
)

// ExportPDF renders the product listing as a PDF table.
func ExportPDF(title string, products []*models.Product) ([]byte, error) {
	if title == "" {
		title = "Product Listing"
	}

	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	addPDFTitle(m, title, len(products))
	addPDFTableHeader(m)
	for _, p := range products {
		addPDFProductRow(m, p)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addPDFTitle(m core.Maroto, title string, count int) {
	m.AddRow(14,
		col.New(8).Add(
			text.New(title, props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("%d products", count), props.Text{
				Size:  10,
				Align: align.Right,
			}),
			text.New(time.Now().Format("Jan 02, 2006"), props.Text{
				Size:  9,
				Top:   5,
				Align: align.Right,
			}),
		),
	)
	m.AddRow(4, line.NewCol(12))
}

func addPDFTableHeader(m core.Maroto) {
	m.AddRow(8,
		col.New(4).Add(
			text.New("Name", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Left}),
		),
		col.New(2).Add(
			text.New("SKU", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Left}),
		),
		col.New(2).Add(
			text.New("Category", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Left}),
		),
		col.New(1).Add(
			text.New("Stock", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center}),
		),
		col.New(2).Add(
			text.New("Price", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		),
		col.New(1).Add(
			text.New("Status", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		),
	)
	m.AddRow(2, line.NewCol(12))
}

func addPDFProductRow(m core.Maroto, p *models.Product) {
	m.AddRow(7,
		col.New(4).Add(
			text.New(p.Name, props.Text{Size: 9, Align: align.Left}),
		),
		col.New(2).Add(
			text.New(p.SKU, props.Text{Size: 9, Align: align.Left}),
		),
		col.New(2).Add(
			text.New(p.Category, props.Text{Size: 9, Align: align.Left}),
		),
		col.New(1).Add(
			text.New(strconv.Itoa(p.Stock), props.Text{Size: 9, Align: align.Center}),
		),
		col.New(2).Add(
			text.New(p.RetailPrice.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		),
		col.New(1).Add(
			text.New(string(p.Status), props.Text{Size: 9, Align: align.Right}),
		),
	)
}
