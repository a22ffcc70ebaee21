package orders

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/schollz/progressbar/v3"
	"github.com/xuri/excelize/v2"
)

// Format identifies an input container.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options controls loading.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// TimeLayout is tried before the built-in timestamp layouts.
	TimeLayout string
	// Columns maps canonical column names to the headers used by this file.
	Columns map[string]string
	// XLSX sheet selection: name wins over 1-based index.
	SheetName  string
	SheetIndex int
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
}

// DetectFormat picks the input format from the extension, falling back to
// content sniffing for unknown extensions.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect format: %w", err)
	}
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FormatXLSX, nil
	case mt.Is("text/csv"), mt.Is("text/tab-separated-values"), mt.Is("text/plain"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported input %s (detected %s)", filepath.Base(path), mt.String())
}

// Load reads a CSV/TSV or XLSX order dataset.
func Load(path string, opt Options) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited file.
func LoadCSV(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	var in io.Reader = f
	if opt.Progress != nil {
		if st, err := f.Stat(); err == nil {
			bar := progressbar.NewOptions64(st.Size(),
				progressbar.OptionSetWriter(opt.Progress),
				progressbar.OptionSetDescription("reading "+filepath.Base(path)),
				progressbar.OptionShowBytes(true),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Finish()
			in = io.TeeReader(f, bar)
		}
	}
	return ReadCSV(in, filepath.Base(path), opt)
}

// ReadCSV decodes delimited rows from r. name labels errors and the table.
func ReadCSV(r io.Reader, name string, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	// Leading-space trimming would swallow empty cells between tab delimiters.
	cr.TrimLeadingSpace = !unicode.IsSpace(cr.Comma)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dec, err := newDecoder(name, header, opt)
	if err != nil {
		return nil, err
	}

	t := &Table{Name: name}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.Rows+1, err)
		}
		t.Rows++
		if err := t.add(dec, rec, t.Rows); err != nil {
			return nil, err
		}
	}
	t.finish()
	return t, nil
}

// LoadXLSX reads the selected worksheet of a workbook.
func LoadXLSX(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt.SheetName, opt.SheetIndex, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	name := filepath.Base(path)
	if len(rows) == 0 {
		return &Table{Name: name}, nil
	}
	dec, err := newDecoder(name, rows[0], opt)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if opt.Progress != nil {
		bar = progressbar.NewOptions(len(rows)-1,
			progressbar.OptionSetWriter(opt.Progress),
			progressbar.OptionSetDescription("reading "+sheet),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	t := &Table{Name: name}
	for _, rec := range rows[1:] {
		t.Rows++
		if err := t.add(dec, rec, t.Rows); err != nil {
			return nil, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	t.finish()
	return t, nil
}

func pickSheet(sheets []string, name string, index int, book string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %s has no sheets", book)
	}
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			name, book, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook '%s' has %d sheets)", index, book, len(sheets))
	}
	return sheets[index-1], nil
}

func (t *Table) add(dec *decoder, rec []string, row int) error {
	r, nullPurchase, err := dec.decode(rec, row)
	if err != nil {
		return err
	}
	if nullPurchase {
		t.NullPurchases++
	}
	t.Records = append(t.Records, r)
	return nil
}

func (t *Table) finish() {
	if t.NullPurchases > 0 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("%d/%d rows have a missing or unparsable %s and are excluded from RFM", t.NullPurchases, t.Rows, ColPurchasedAt))
	}
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
