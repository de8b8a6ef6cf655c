package fetcher

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// ReadCSV loads a delimited file into a Table. The first row is the
// header. Short rows are tolerated; quoting follows the lenient rules
// because several upstream exports hand-edit quotes.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, eris.Errorf("fetcher: %s is empty", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read header of %s", path)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", path)
		}
		rows = append(rows, row)
	}
	return newTable(header, rows), nil
}

// WriteCSV writes an output table wholesale, replacing any previous run's
// file. Outputs stay CSV so every downstream consumer can read them
// without a shared library.
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return eris.Wrapf(err, "fetcher: write header of %s", path)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return eris.Wrapf(err, "fetcher: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return eris.Wrapf(err, "fetcher: flush %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "fetcher: close %s", path)
	}
	return nil
}
