// Package export writes tabular reports to Excel and PDF files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type Kind int

const (
	Text Kind = iota
	Number
	Money
	Percent
)

type Column struct {
	Header string
	Kind   Kind
}

// Pair is a labelled value shown in the summary block.
type Pair struct {
	Label string
	Value string
}

// Report is a format-agnostic table. Row cells are strings, ints or
// float64 and follow the column order.
type Report struct {
	Title    string
	Period   string
	Columns  []Column
	Rows     [][]any
	Summary  []Pair
	Insights []string
}

func (r Report) validate() error {
	if len(r.Columns) == 0 {
		return fmt.Errorf("reporte sin columnas")
	}
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return fmt.Errorf("fila %d: %d celdas, se esperaban %d", i+1, len(row), len(r.Columns))
		}
	}
	return nil
}

// Format renders a cell the way PDF output and summaries show it.
func Format(k Kind, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return fmt.Sprintf("%d", x)
	case float64:
		switch k {
		case Money:
			if x < 0 {
				return fmt.Sprintf("-$%.2f", -x)
			}
			return fmt.Sprintf("$%.2f", x)
		case Percent:
			return fmt.Sprintf("%.1f%%", x)
		default:
			return fmt.Sprintf("%.2f", x)
		}
	default:
		return fmt.Sprint(x)
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// filePath builds a unique file name under dir and makes sure dir exists.
func filePath(dir, title, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("crear carpeta de exportación: %w", err)
	}
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if slug == "" {
		slug = "reporte"
	}
	name := fmt.Sprintf("%s_%s.%s", slug, strings.Split(uuid.NewString(), "-")[0], ext)
	return filepath.Join(dir, name), nil
}
