package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Workbook wraps an open tracker workbook so several sheets can be read
// without reopening the file.
type Workbook struct {
	file *xlsx.File
	path string
}

func OpenWorkbook(path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open workbook %s", path)
	}
	return &Workbook{file: f, path: path}, nil
}

// Sheets lists the sheet names in file order.
func (w *Workbook) Sheets() []string {
	names := make([]string, len(w.file.Sheets))
	for i, s := range w.file.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet reads one sheet into a Table. The first row after skipRows is the
// header; tracker workbooks sometimes carry banner rows above it.
func (w *Workbook) Sheet(name string, skipRows int) (*Table, error) {
	sheet, ok := w.file.Sheet[name]
	if !ok {
		return nil, eris.Errorf("fetcher: sheet %q not found in %s", name, w.path)
	}

	var header []string
	var rows [][]string
	for i, row := range sheet.Rows {
		if i < skipRows {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if header == nil {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if header == nil {
		return nil, eris.Errorf("fetcher: sheet %q in %s has no header row", name, w.path)
	}
	return newTable(header, rows), nil
}
