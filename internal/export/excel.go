package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Reporte"

// WriteExcel writes r as a single-sheet workbook under dir and returns the
// file path. Numbers are written as numbers with a display format so the
// sheet stays usable for further calculation.
func WriteExcel(dir string, r Report) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5496"}},
	})
	if err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}
	styles := map[Kind]int{}
	for kind, fmtCode := range map[Kind]string{
		Number:  "#,##0.00",
		Money:   "\"$\"#,##0.00",
		Percent: "0.0\"%\"",
	} {
		code := fmtCode
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
		if err != nil {
			return "", fmt.Errorf("excel: %w", err)
		}
		styles[kind] = id
	}

	row := 1
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}
	style := func(col, row, id int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellStyle(sheetName, cell, cell, id)
	}

	if err := set(1, row, r.Title); err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}
	if err := style(1, row, titleStyle); err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}
	row++
	if r.Period != "" {
		if err := set(1, row, r.Period); err != nil {
			return "", fmt.Errorf("excel: %w", err)
		}
		row++
	}
	row++

	// ----- tabla
	for i, c := range r.Columns {
		if err := set(i+1, row, c.Header); err != nil {
			return "", fmt.Errorf("excel: %w", err)
		}
		if err := style(i+1, row, headerStyle); err != nil {
			return "", fmt.Errorf("excel: %w", err)
		}
	}
	row++
	for _, cells := range r.Rows {
		for i, v := range cells {
			if err := set(i+1, row, v); err != nil {
				return "", fmt.Errorf("excel: %w", err)
			}
			if id, ok := styles[r.Columns[i].Kind]; ok {
				if err := style(i+1, row, id); err != nil {
					return "", fmt.Errorf("excel: %w", err)
				}
			}
		}
		row++
	}

	// ----- resumen e insights
	if len(r.Summary) > 0 {
		row++
		for _, p := range r.Summary {
			if err := set(1, row, p.Label); err != nil {
				return "", fmt.Errorf("excel: %w", err)
			}
			if err := set(2, row, p.Value); err != nil {
				return "", fmt.Errorf("excel: %w", err)
			}
			row++
		}
	}
	if len(r.Insights) > 0 {
		row++
		if err := set(1, row, "Hallazgos"); err != nil {
			return "", fmt.Errorf("excel: %w", err)
		}
		if err := style(1, row, titleStyle); err != nil {
			return "", fmt.Errorf("excel: %w", err)
		}
		row++
		for _, s := range r.Insights {
			if err := set(1, row, s); err != nil {
				return "", fmt.Errorf("excel: %w", err)
			}
			row++
		}
	}

	last, err := excelize.ColumnNumberToName(len(r.Columns))
	if err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", last, 16); err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "A", 32); err != nil {
		return "", fmt.Errorf("excel: %w", err)
	}

	path, err := filePath(dir, r.Title, "xlsx")
	if err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("guardar excel: %w", err)
	}
	return path, nil
}
