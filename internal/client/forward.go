package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ErrCircuitOpen is returned by Forward while the sink is considered down.
var ErrCircuitOpen = errors.New("flight sink circuit open")

// Putter delivers a record to a named dataset. *FlightClient implements it.
type Putter interface {
	DoPut(ctx context.Context, datasetName string, record arrow.RecordBatch) error
}

// Forwarder pushes conversion records to a Flight sink behind a circuit breaker.
type Forwarder struct {
	sink    Putter
	dataset string
	breaker *CircuitBreaker
}

func NewForwarder(sink Putter, dataset string, breaker *CircuitBreaker) *Forwarder {
	return &Forwarder{sink: sink, dataset: dataset, breaker: breaker}
}

// Forward delivers rec, or returns ErrCircuitOpen without calling the sink.
func (f *Forwarder) Forward(ctx context.Context, rec arrow.RecordBatch) error {
	if !f.breaker.Allow() {
		recordsSkipped.Inc()
		return ErrCircuitOpen
	}

	if err := f.sink.DoPut(ctx, f.dataset, rec); err != nil {
		f.breaker.Failure()
		forwardErrors.Inc()
		return fmt.Errorf("forwarding to dataset %s: %w", f.dataset, err)
	}

	f.breaker.Success()
	recordsForwarded.Inc()
	rowsForwarded.Add(float64(rec.NumRows()))
	return nil
}
