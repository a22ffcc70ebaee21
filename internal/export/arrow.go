package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

// Pool is the Go memory allocator used by Arrow.
var Pool = memory.NewGoAllocator()

// Schema is the columnar layout of the scored customer table.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "customer_unique_id", Type: arrow.BinaryTypes.String},
	{Name: "last_purchase", Type: arrow.FixedWidthTypes.Timestamp_s},
	{Name: "recency", Type: arrow.PrimitiveTypes.Int64},
	{Name: "frequency", Type: arrow.PrimitiveTypes.Int64},
	{Name: "monetary", Type: arrow.PrimitiveTypes.Float64},
	{Name: "r_score", Type: arrow.PrimitiveTypes.Int8},
	{Name: "f_score", Type: arrow.PrimitiveTypes.Int8},
	{Name: "m_score", Type: arrow.PrimitiveTypes.Int8},
	{Name: "rfm_score", Type: arrow.BinaryTypes.String},
	{Name: "segment", Type: arrow.BinaryTypes.String},
}, nil)

// BuildRecord converts customers into a single Arrow record batch. The caller
// must Release it.
func BuildRecord(customers []rfm.Customer) arrow.Record {
	b := array.NewRecordBuilder(Pool, Schema)
	defer b.Release()

	ids := b.Field(0).(*array.StringBuilder)
	last := b.Field(1).(*array.TimestampBuilder)
	recency := b.Field(2).(*array.Int64Builder)
	frequency := b.Field(3).(*array.Int64Builder)
	monetary := b.Field(4).(*array.Float64Builder)
	r := b.Field(5).(*array.Int8Builder)
	f := b.Field(6).(*array.Int8Builder)
	m := b.Field(7).(*array.Int8Builder)
	code := b.Field(8).(*array.StringBuilder)
	seg := b.Field(9).(*array.StringBuilder)

	for _, c := range customers {
		ids.Append(c.CustomerID)
		last.Append(arrow.Timestamp(c.LastPurchase.Unix()))
		recency.Append(int64(c.Recency))
		frequency.Append(int64(c.Frequency))
		monetary.Append(c.Monetary)
		r.Append(int8(c.RScore))
		f.Append(int8(c.FScore))
		m.Append(int8(c.MScore))
		code.Append(string(c.Code))
		seg.Append(string(c.Segment))
	}
	return b.NewRecord()
}

// WriteArrow writes customers as an Arrow IPC file.
func WriteArrow(w io.Writer, customers []rfm.Customer) error {
	rec := BuildRecord(customers)
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(Schema), ipc.WithAllocator(Pool))
	if err != nil {
		return fmt.Errorf("arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return nil
}
