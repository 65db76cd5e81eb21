package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spektr-org/spendshark/engine"
)

// WriteCSV writes a table as CSV: header labels, then rows. The summary row is omitted.
func WriteCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("csv rows: %w", err)
	}
	return nil
}
