package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/23skdu/longbow-fp16/internal/analysis"
	"github.com/23skdu/longbow-fp16/internal/client"
	"github.com/23skdu/longbow-fp16/internal/fp16"
)

var (
	valuesEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_values_encoded_total",
		Help: "Decimal values converted to binary16",
	})

	valuesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_values_decoded_total",
		Help: "Binary16 patterns converted to decimals",
	})

	invalidTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_invalid_hex_tokens_total",
		Help: "Decode requests rejected for a malformed hex token",
	})

	overflowValues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_overflow_values_total",
		Help: "Finite decimals that saturated to infinity",
	})

	inexactValues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fp16_inexact_values_total",
		Help: "Decimals that changed value when narrowed to binary16",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fp16_request_duration_seconds",
		Help:    "Time spent processing conversion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

const arrowStreamType = "application/vnd.apache.arrow.stream"

// Forwarder delivers conversion records to a downstream sink.
type Forwarder interface {
	Forward(ctx context.Context, rec arrow.RecordBatch) error
}

// EncodeResponse is the CBOR body returned by /encode.
type EncodeResponse struct {
	Bits []uint16 `cbor:"bits"`
	Hex  []string `cbor:"hex"`
}

// DecodeResponse is the CBOR body returned by /decode.
type DecodeResponse struct {
	Bits   []uint16  `cbor:"bits"`
	Values []float64 `cbor:"values"`
}

// Server serves the HTTP conversion endpoints.
type Server struct {
	forwarder Forwarder
	alloc     memory.Allocator
	builder   *client.RecordBatchBuilder
	sem       *semaphore.Weighted
	capacity  int64
}

// NewServer admits at most maxConcurrent values in flight. fwd may be nil.
func NewServer(fwd Forwarder, maxConcurrent int) *Server {
	alloc := memory.NewGoAllocator()
	return &Server{
		forwarder: fwd,
		alloc:     alloc,
		builder:   client.NewRecordBatchBuilder(alloc),
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		capacity:  int64(maxConcurrent),
	}
}

// Routes returns a mux with every endpoint registered.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/encode", s.handleEncode)
	mux.HandleFunc("/encode/arrow", s.handleEncodeArrow)
	mux.HandleFunc("/decode", s.handleDecode)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func startServer(addr string, srv *Server) {
	log.Info().Str("addr", addr).Msg("Starting FP16 HTTP Server")
	if srv.forwarder != nil {
		log.Info().Msg("Forwarding conversion records to Flight sink")
	}
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

var tracer = otel.Tracer("fp16-server")

// admit reserves n slots; the returned func releases them.
func (s *Server) admit(ctx context.Context, n int) (func(), int, error) {
	weight := int64(n)
	if weight > s.capacity {
		return nil, http.StatusRequestEntityTooLarge,
			fmt.Errorf("batch of %d values exceeds limit %d", n, s.capacity)
	}
	if err := s.sem.Acquire(ctx, weight); err != nil {
		return nil, http.StatusServiceUnavailable, err
	}
	return func() { s.sem.Release(weight) }, 0, nil
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleEncode")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var values []float64
	if err := cbor.NewDecoder(r.Body).Decode(&values); err != nil {
		span.RecordError(err)
		http.Error(w, fmt.Sprintf("Bad Request (CBOR decode): %v", err), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("value_count", len(values)))

	release, code, err := s.admit(ctx, len(values))
	if err != nil {
		log.Error().Err(err).Int("values", len(values)).Msg("Rejected encode request")
		http.Error(w, err.Error(), code)
		return
	}
	defer release()

	bits := fp16.EncodeBatch(values)
	observeEncoded(values)

	if s.forwarder != nil && len(values) > 0 {
		rec := s.builder.BuildConversionRecord(values, nil)
		if err := s.forwarder.Forward(ctx, rec); err != nil {
			log.Warn().Err(err).Int64("rows", rec.NumRows()).Msg("Error forwarding conversion record")
		}
		rec.Release()
	}

	writeCBOR(w, EncodeResponse{Bits: bits, Hex: fp16.ToHexBatch(bits)})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "handleDecode")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var tokens []string
	if err := cbor.NewDecoder(r.Body).Decode(&tokens); err != nil {
		span.RecordError(err)
		http.Error(w, fmt.Sprintf("Bad Request (CBOR decode): %v", err), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("token_count", len(tokens)))

	bits, err := fp16.FromHexBatch(tokens)
	if err != nil {
		invalidTokens.Inc()
		span.RecordError(err)
		var batchErr *fp16.BatchError
		if errors.As(err, &batchErr) {
			span.SetAttributes(attribute.Int("invalid_index", batchErr.Index))
		}
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}

	valuesDecoded.Add(float64(len(bits)))
	writeCBOR(w, DecodeResponse{Bits: bits, Values: fp16.DecodeBatch(bits)})
}

func (s *Server) handleEncodeArrow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleEncodeArrow")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("encode_arrow").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reader, err := ipc.NewReader(r.Body, ipc.WithAllocator(s.alloc))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create IPC reader: %v", err), http.StatusBadRequest)
		return
	}
	defer reader.Release()

	// out is written only once the whole request stream has converted.
	var out []arrow.RecordBatch
	defer func() {
		for _, rec := range out {
			rec.Release()
		}
	}()

	total := 0
	for reader.Next() {
		values, valid, err := client.DecimalColumn(reader.Record())
		if err != nil {
			http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
			return
		}

		release, code, err := s.admit(ctx, len(values))
		if err != nil {
			log.Error().Err(err).Msg("Rejected arrow batch")
			http.Error(w, err.Error(), code)
			return
		}
		rec := s.builder.BuildConversionRecord(values, valid)
		release()

		observeEncoded(values)
		out = append(out, rec)
		total += len(values)

		if s.forwarder != nil {
			if err := s.forwarder.Forward(ctx, rec); err != nil {
				log.Warn().Err(err).Msg("Error forwarding conversion record")
			}
		}
	}
	if err := reader.Err(); err != nil {
		log.Error().Err(err).Msg("Error reading Arrow stream")
		http.Error(w, "Stream error", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("value_count", total))

	w.Header().Set("Content-Type", arrowStreamType)
	writer := ipc.NewWriter(w, ipc.WithSchema(client.ConversionSchema), ipc.WithAllocator(s.alloc))
	for _, rec := range out {
		if err := writer.Write(rec); err != nil {
			log.Error().Err(err).Msg("Failed to write arrow response")
			break
		}
	}
	if err := writer.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close arrow response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// observeEncoded records conversion counters for a batch of encoded values.
func observeEncoded(values []float64) {
	valuesEncoded.Add(float64(len(values)))
	report := analysis.Analyze(values)
	overflowValues.Add(float64(report.Overflow))
	inexactValues.Add(float64(report.Inexact))
}

func writeCBOR(w http.ResponseWriter, v interface{}) {
	data, err := cbor.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("CBOR encode: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
