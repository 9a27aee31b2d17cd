package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/quota-hawk/internal/model"
)

// RenderSummary formats the end-of-run report: per-classifier flag counts
// over the full table, columns in run order.
func RenderSummary(columns []string, rows []model.Suspicion) string {
	counts := make(map[string]int, len(columns))
	for i := range rows {
		for _, col := range columns {
			if rows[i].Flags[col] {
				counts[col]++
			}
		}
	}

	width := 0
	for _, col := range columns {
		if len(col) > width {
			width = len(col)
		}
	}

	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Suspicions (%d records)", len(rows))))
	b.WriteString("\n")
	for _, col := range columns {
		line := fmt.Sprintf("%-*s %d", width+2, col, counts[col])
		if counts[col] > 0 {
			b.WriteString(WarningStyle.Render(line))
		} else {
			b.WriteString(SubtleStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
