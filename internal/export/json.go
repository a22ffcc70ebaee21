package export

import (
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

// Document is the JSON export layout.
type Document struct {
	Meta      Meta               `json:"meta"`
	Reference time.Time          `json:"reference"`
	Tiers     int                `json:"tiers"`
	Skipped   int                `json:"skipped_rows"`
	Fallbacks []string           `json:"fallbacks,omitempty"`
	Segments  []rfm.SegmentCount `json:"segments"`
	Customers []rfm.Customer     `json:"customers"`
}

// NewDocument assembles the JSON layout of a result.
func NewDocument(res *rfm.Result, meta Meta) Document {
	customers := res.Customers
	if customers == nil {
		customers = []rfm.Customer{}
	}
	return Document{
		Meta:      meta,
		Reference: res.Reference,
		Tiers:     res.Tiers,
		Skipped:   res.Skipped,
		Fallbacks: res.Fallbacks,
		Segments:  res.Summary(),
		Customers: customers,
	}
}

// WriteJSON writes the pretty-printed document atomically.
func WriteJSON(path string, res *rfm.Result, meta Meta) error {
	b, err := utils.PrettyJSON(NewDocument(res, meta))
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
