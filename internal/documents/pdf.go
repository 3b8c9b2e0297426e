package documents

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	qrcode "github.com/skip2/go-qrcode"
)

// ── Colour palette ──────────────────────────────────────────────────────

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent    = &props.Color{Red: 14, Green: 116, Blue: 144}  // cyan-700
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorTableAlt  = &props.Color{Red: 249, Green: 250, Blue: 251} // gray-50
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
	colorNotice    = &props.Color{Red: 254, Green: 249, Blue: 195} // yellow-100
)

const qrSize = 256

// RenderSummaryPDF creates the policy summary PDF.
func RenderSummaryPDF(data SummaryData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter()); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(data)...)
	m.AddRows(row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	}))
	m.AddRows(row.New(4))

	m.AddRows(buildNotice())
	m.AddRows(row.New(6))

	m.AddRows(buildTripBlock(data)...)
	m.AddRows(row.New(6))

	m.AddRows(buildTravelersTable(data)...)
	m.AddRows(row.New(6))

	m.AddRows(buildPriceTable(data)...)

	if data.DocumentsURL != "" {
		qrRows, err := buildQRBlock(data.DocumentsURL)
		if err != nil {
			return nil, err
		}
		m.AddRows(row.New(8))
		m.AddRows(qrRows...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// ── Header ──────────────────────────────────────────────────────────────

func buildHeader(data SummaryData) []core.Row {
	issued := ""
	if !data.IssuedAt.IsZero() {
		issued = "Issued " + data.IssuedAt.Format("02 Jan 2006")
	}

	return []core.Row{
		row.New(20).Add(
			col.New(6).Add(
				text.New("POLICY SUMMARY", props.Text{
					Size:  18,
					Style: fontstyle.Bold,
					Color: colorAccent,
					Top:   2,
				}),
				text.New(data.QuoteName, props.Text{
					Size:  10,
					Color: colorPrimary,
					Top:   11,
				}),
			),
			col.New(6).Add(
				text.New(data.PolicyNumber, props.Text{
					Size:  12,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: colorPrimary,
					Top:   2,
				}),
				text.New(issued, props.Text{
					Size:  8,
					Align: align.Right,
					Color: colorSecondary,
					Top:   11,
				}),
			),
		),
	}
}

func buildNotice() core.Row {
	return row.New(10).Add(
		col.New(12).Add(text.New(
			"This summary was generated for your convenience. Your certificate and policy wording are the legally binding documents.",
			props.Text{Size: 7.5, Color: colorPrimary, Top: 2},
		)),
	).WithStyle(&props.Cell{BackgroundColor: colorNotice})
}

// ── Trip ────────────────────────────────────────────────────────────────

func buildTripBlock(data SummaryData) []core.Row {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}
	value := props.Text{Size: 9, Color: colorPrimary}

	return []core.Row{
		row.New(5).Add(
			col.New(4).Add(text.New("DESTINATION", label)),
			col.New(4).Add(text.New("TRAVEL DATES", label)),
			col.New(4).Add(text.New("POLICY HOLDER", label)),
		),
		row.New(6).Add(
			col.New(4).Add(text.New(data.Destination, value)),
			col.New(4).Add(text.New(data.StartDate+" to "+data.EndDate, value)),
			col.New(4).Add(text.New(data.HolderName, value)),
		),
		row.New(5).Add(
			col.New(4).Add(text.New(joinParts([]string{data.PolicyTypeName, data.ResidenceCountry}, "  |  "), props.Text{Size: 8, Color: colorSecondary})),
			col.New(4),
			col.New(4).Add(text.New(data.HolderEmail, props.Text{Size: 8, Color: colorSecondary})),
		),
	}
}

// ── Travelers ───────────────────────────────────────────────────────────

func buildTravelersTable(data SummaryData) []core.Row {
	headerStyle := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New("INSURED TRAVELERS", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorAccent}))),
		row.New(7).Add(
			col.New(9).Add(text.New("Name", headerStyle)),
			col.New(3).Add(text.New("Age", props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 1.5})),
		).WithStyle(&props.Cell{BackgroundColor: colorTableHead}),
	}

	for i, t := range data.Travelers {
		r := row.New(6).Add(
			col.New(9).Add(text.New(t.Name, props.Text{Size: 8, Color: colorPrimary, Top: 1})),
			col.New(3).Add(text.New(strconv.Itoa(t.Age), props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1})),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
		}
		rows = append(rows, r)
	}
	return rows
}

// ── Prices ──────────────────────────────────────────────────────────────

func buildPriceTable(data SummaryData) []core.Row {
	cell := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	cellRight := props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1}

	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New("PREMIUM", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorAccent}))),
		row.New(6).Add(
			col.New(8).Add(text.New(data.QuoteName+" (base premium)", cell)),
			col.New(4).Add(text.New(formatMoney(data.BasePriceCents, data.Currency), cellRight)),
		),
	}

	for _, a := range data.Addons {
		price := "included in total"
		if a.PriceKnown {
			price = formatMoney(a.PriceCents, data.Currency)
		}
		rows = append(rows, row.New(6).Add(
			col.New(8).Add(text.New("+ "+a.Name, cell)),
			col.New(4).Add(text.New(price, cellRight)),
		))
	}

	rows = append(rows, row.New(9).Add(
		col.New(8).Add(text.New("Total paid", props.Text{Size: 10, Style: fontstyle.Bold, Color: colorPrimary, Top: 2})),
		col.New(4).Add(text.New(formatMoney(data.TotalCents, data.Currency), props.Text{Size: 10, Style: fontstyle.Bold, Color: colorAccent, Align: align.Right, Top: 2})),
	).WithStyle(&props.Cell{BorderType: border.Top, BorderColor: colorBorder}))

	return rows
}

// ── QR code ─────────────────────────────────────────────────────────────

func buildQRBlock(url string) ([]core.Row, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode QR code: %w", err)
	}

	return []core.Row{
		row.New(30).Add(
			col.New(3).Add(image.NewFromBytes(png, extension.Png, props.Rect{Percent: 100, Center: false})),
			col.New(9).Add(
				text.New("Scan to open your policy documents", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorPrimary, Top: 8}),
				text.New(url, props.Text{Size: 7, Color: colorSecondary, Top: 14}),
			),
		),
	}, nil
}

// ── Footer (registered, repeats on every page) ──────────────────────────

func buildFooter() core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New("Policy summary  ·  not a certificate of insurance", props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}
