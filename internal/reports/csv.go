package reports

import (
	"bytes"
	"encoding/csv"

	"github.com/rossyflor/pos-admin/internal/sales"
)

// GenerateSalesCSV renders the same four columns as the PDF table.
func (g *Generator) GenerateSalesCSV(rows []sales.Sale) (*Document, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(tableColumns); err != nil {
		return nil, err
	}
	for _, s := range rows {
		if err := w.Write(g.Row(s)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &Document{
		Filename:    CSVFilename,
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
		Pages:       1,
		Rows:        len(rows),
	}, nil
}
