package export

import (
	"fmt"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
)

// maroto uses a 12 column grid
const gridCols = 12

var (
	darkGray   = color.Color{Red: 38, Green: 38, Blue: 34}
	mediumGray = color.Color{Red: 121, Green: 119, Blue: 109}
)

// WritePDF renders r as a table with its summary and insights and returns
// the file path. Only the first 12 columns fit the page grid.
func WritePDF(dir string, r Report) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}

	cols := r.Columns
	if len(cols) > gridCols {
		cols = cols[:gridCols]
	}
	widths := gridWidths(len(cols))

	orientation := consts.Portrait
	if len(cols) > 6 {
		orientation = consts.Landscape
	}
	m := pdf.NewMaroto(orientation, consts.A4)
	m.SetPageMargins(15, 15, 15)

	m.Row(12, func() {
		m.Col(gridCols, func() {
			m.Text(r.Title, props.Text{
				Size:  16,
				Style: consts.Bold,
				Color: darkGray,
			})
		})
	})
	if r.Period != "" {
		m.Row(6, func() {
			m.Col(gridCols, func() {
				m.Text(r.Period, props.Text{
					Size:  9,
					Color: mediumGray,
				})
			})
		})
	}
	m.Row(6, func() {})

	// ----- encabezado
	m.Row(7, func() {
		for i, c := range cols {
			header := c.Header
			m.Col(widths[i], func() {
				m.Text(header, props.Text{
					Size:  8,
					Style: consts.Bold,
					Color: darkGray,
					Align: alignFor(c.Kind),
				})
			})
		}
	})

	for _, cells := range r.Rows {
		m.Row(6, func() {
			for i, c := range cols {
				text := Format(c.Kind, cells[i])
				m.Col(widths[i], func() {
					m.Text(text, props.Text{
						Size:  8,
						Color: darkGray,
						Align: alignFor(c.Kind),
					})
				})
			}
		})
	}

	if len(r.Summary) > 0 {
		m.Row(6, func() {})
		for _, p := range r.Summary {
			label, value := p.Label, p.Value
			m.Row(5, func() {
				m.Col(6, func() {
					m.Text(label, props.Text{Size: 9, Color: mediumGray})
				})
				m.Col(6, func() {
					m.Text(value, props.Text{Size: 9, Style: consts.Bold, Color: darkGray, Align: consts.Right})
				})
			})
		}
	}

	if len(r.Insights) > 0 {
		m.Row(8, func() {})
		m.Row(7, func() {
			m.Col(gridCols, func() {
				m.Text("Hallazgos", props.Text{Size: 11, Style: consts.Bold, Color: darkGray})
			})
		})
		for _, s := range r.Insights {
			line := "• " + s
			m.Row(6, func() {
				m.Col(gridCols, func() {
					m.Text(line, props.Text{Size: 9, Color: darkGray})
				})
			})
		}
	}

	path, err := filePath(dir, r.Title, "pdf")
	if err != nil {
		return "", err
	}
	if err := m.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("guardar pdf: %w", err)
	}
	return path, nil
}

// gridWidths splits the 12 column grid; the first column takes the rest.
func gridWidths(n int) []uint {
	if n <= 0 {
		return nil
	}
	base := gridCols / n
	widths := make([]uint, n)
	for i := range widths {
		widths[i] = uint(base)
	}
	widths[0] = uint(gridCols - base*(n-1))
	return widths
}

func alignFor(k Kind) consts.Align {
	if k == Text {
		return consts.Left
	}
	return consts.Right
}
