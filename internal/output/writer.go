// Package output serializes the merged suspicions table to compressed CSV.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/ulikunitz/xz"
)

// Writer writes suspicions as UTF-8 CSV with a header row, xz-compressed
// when the path ends in .xz.
type Writer struct {
	path string
}

// NewWriter creates a writer targeting path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write implements core.ReportWriter. Columns are emitted after the
// identity triple, in the given order.
func (w *Writer) Write(columns []string, rows []model.Suspicion) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	var out io.Writer = f
	var xw *xz.Writer
	if strings.HasSuffix(w.path, ".xz") {
		xw, err = xz.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to open xz stream: %w", err)
		}
		out = xw
	}

	if err := writeCSV(out, columns, rows); err != nil {
		_ = f.Close()
		return err
	}

	if xw != nil {
		if err := xw.Close(); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to flush xz stream: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func writeCSV(out io.Writer, columns []string, rows []model.Suspicion) error {
	cw := csv.NewWriter(out)

	header := append([]string{"applicant_id", "year", "document_id"}, columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i := range rows {
		row := &rows[i]
		record[0] = row.ApplicantID
		record[1] = strconv.Itoa(row.Year)
		record[2] = strconv.Itoa(row.DocumentID)
		for j, col := range columns {
			record[3+j] = strconv.FormatBool(row.Flags[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
