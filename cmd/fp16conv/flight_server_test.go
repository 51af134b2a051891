package main

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-fp16/internal/client"
)

func startConverter(t *testing.T, fwd Forwarder) *client.FlightClient {
	t.Helper()
	server := flight.NewServerWithMiddleware(nil)
	server.RegisterFlightService(NewConverterFlightServer(fwd))
	require.NoError(t, server.Init("localhost:0"))
	go func() {
		_ = server.Serve()
	}()
	t.Cleanup(server.Shutdown)

	fc, err := client.NewFlightClient(server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fc.Close() })
	return fc
}

func decimalRecord(values []float64) arrow.RecordBatch {
	b := array.NewFloat64Builder(memory.NewGoAllocator())
	defer b.Release()
	b.AppendValues(values, nil)
	arr := b.NewArray()
	defer arr.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "decimal", Type: arrow.PrimitiveTypes.Float64}}, nil)
	return array.NewRecordBatch(schema, []arrow.Array{arr}, int64(len(values)))
}

func TestFlightServer_DoExchange(t *testing.T) {
	fc := startConverter(t, nil)

	rec := decimalRecord([]float64{0.0, 1.5, -2.5})
	defer rec.Release()

	out, err := fc.Exchange(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, out, 1)
	defer out[0].Release()

	halves := out[0].Column(1).(*array.Float16)
	assert.Equal(t, uint16(0x0000), halves.Value(0).Uint16())
	assert.Equal(t, uint16(0x3E00), halves.Value(1).Uint16())
	assert.Equal(t, uint16(0xC100), halves.Value(2).Uint16())
}

func TestFlightServer_DoPutForwards(t *testing.T) {
	fwd := &mockForwarder{}
	fwd.On("Forward", mock.Anything, mock.MatchedBy(func(rec arrow.RecordBatch) bool {
		return rec.NumRows() == 2 && rec.Schema().Equal(client.ConversionSchema)
	})).Return(nil).Once()

	fc := startConverter(t, fwd)

	rec := decimalRecord([]float64{1, 2})
	defer rec.Release()

	require.NoError(t, fc.DoPut(context.Background(), "incoming", rec))
	fwd.AssertExpectations(t)
}
