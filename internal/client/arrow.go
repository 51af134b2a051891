package client

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-fp16/internal/fp16"
)

// ConversionSchema is the layout of every record produced by
// BuildConversionRecord: the source decimal, its binary16 value and hex token.
var ConversionSchema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "decimal", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "fp16", Type: arrow.FixedWidthTypes.Float16, Nullable: true},
		{Name: "hex", Type: arrow.BinaryTypes.String, Nullable: true},
	},
	nil,
)

// ErrNoDecimalColumn is returned for records without any column.
var ErrNoDecimalColumn = errors.New("record has no decimal column")

// RecordBatchBuilder creates Arrow RecordBatches of conversion results.
type RecordBatchBuilder struct {
	mem memory.Allocator
}

// NewRecordBatchBuilder creates a new builder.
func NewRecordBatchBuilder(mem memory.Allocator) *RecordBatchBuilder {
	return &RecordBatchBuilder{mem: mem}
}

// BuildConversionRecord encodes values into a ConversionSchema record. A nil
// valid slice marks every row valid; invalid rows become nulls in all columns.
func (b *RecordBatchBuilder) BuildConversionRecord(values []float64, valid []bool) arrow.RecordBatch {
	decBuilder := array.NewFloat64Builder(b.mem)
	defer decBuilder.Release()
	halfBuilder := array.NewFloat16Builder(b.mem)
	defer halfBuilder.Release()
	hexBuilder := array.NewStringBuilder(b.mem)
	defer hexBuilder.Release()

	decBuilder.Reserve(len(values))
	halfBuilder.Reserve(len(values))
	hexBuilder.Reserve(len(values))

	for i, v := range values {
		if valid != nil && !valid[i] {
			decBuilder.AppendNull()
			halfBuilder.AppendNull()
			hexBuilder.AppendNull()
			continue
		}
		h := fp16.Encode(v)
		decBuilder.Append(v)
		halfBuilder.Append(float16.FromBits(h))
		hexBuilder.Append(fp16.ToHex(h))
	}

	cols := []arrow.Array{decBuilder.NewArray(), halfBuilder.NewArray(), hexBuilder.NewArray()}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	return array.NewRecordBatch(ConversionSchema, cols, int64(len(values)))
}

// DecimalColumn reads the input values of rec: the column named "decimal" if
// present, otherwise the first column. Float64, Float32 and Float16 columns are
// accepted. The second result reports which rows are non-null.
func DecimalColumn(rec arrow.RecordBatch) ([]float64, []bool, error) {
	if rec.NumCols() == 0 {
		return nil, nil, ErrNoDecimalColumn
	}

	idx := 0
	if indices := rec.Schema().FieldIndices("decimal"); len(indices) > 0 {
		idx = indices[0]
	}
	col := rec.Column(idx)

	n := col.Len()
	values := make([]float64, n)
	valid := make([]bool, n)

	switch arr := col.(type) {
	case *array.Float64:
		for i := 0; i < n; i++ {
			if valid[i] = arr.IsValid(i); valid[i] {
				values[i] = arr.Value(i)
			}
		}
	case *array.Float32:
		for i := 0; i < n; i++ {
			if valid[i] = arr.IsValid(i); valid[i] {
				values[i] = float64(arr.Value(i))
			}
		}
	case *array.Float16:
		for i := 0; i < n; i++ {
			if valid[i] = arr.IsValid(i); valid[i] {
				values[i] = fp16.Decode(arr.Value(i).Uint16())
			}
		}
	default:
		return nil, nil, fmt.Errorf("column %q has type %s, want a floating point column",
			rec.ColumnName(idx), col.DataType())
	}
	return values, valid, nil
}
