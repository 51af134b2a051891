package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_records_forwarded_total",
		Help: "Conversion records delivered to the Flight sink",
	})

	rowsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_rows_forwarded_total",
		Help: "Conversion rows delivered to the Flight sink",
	})

	forwardErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_forward_errors_total",
		Help: "Failed DoPut calls to the Flight sink",
	})

	recordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_records_skipped_total",
		Help: "Conversion records dropped because the circuit breaker was open",
	})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fp16_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"breaker"})
)
