package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

// WriteCSV writes one header line plus one line per customer.
func WriteCSV(w io.Writer, customers []rfm.Customer) error {
	if len(customers) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}
	df := dataframe.LoadStructs(toRows(customers))
	if df.Err != nil {
		return fmt.Errorf("build dataframe: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
