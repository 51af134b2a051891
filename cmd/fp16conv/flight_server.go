package main

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/23skdu/longbow-fp16/internal/client"
)

// ConverterFlightServer encodes decimal columns streamed over Arrow Flight.
type ConverterFlightServer struct {
	flight.BaseFlightServer
	forwarder Forwarder
	alloc     memory.Allocator
	builder   *client.RecordBatchBuilder
}

// NewConverterFlightServer creates the service. fwd may be nil.
func NewConverterFlightServer(fwd Forwarder) *ConverterFlightServer {
	alloc := memory.NewGoAllocator()
	return &ConverterFlightServer{
		forwarder: fwd,
		alloc:     alloc,
		builder:   client.NewRecordBatchBuilder(alloc),
	}
}

// DoExchange answers every incoming record with its conversion record.
func (s *ConverterFlightServer) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.alloc))
	if err != nil {
		return err
	}
	defer reader.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(client.ConversionSchema), ipc.WithAllocator(s.alloc))
	defer func() {
		if err := writer.Close(); err != nil {
			log.Warn().Err(err).Msg("DoExchange writer close failed")
		}
	}()

	for reader.Next() {
		values, valid, err := client.DecimalColumn(reader.Record())
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "%v", err)
		}

		rec := s.builder.BuildConversionRecord(values, valid)
		err = writer.Write(rec)
		rec.Release()
		if err != nil {
			return err
		}
		observeEncoded(values)
	}
	return reader.Err()
}

// DoPut converts incoming records and forwards them when a sink is configured.
func (s *ConverterFlightServer) DoPut(stream flight.FlightService_DoPutServer) error {
	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.alloc))
	if err != nil {
		return err
	}
	defer reader.Release()

	for reader.Next() {
		values, valid, err := client.DecimalColumn(reader.Record())
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "%v", err)
		}
		log.Info().Int("rows", len(values)).Msg("DoPut received batch")

		rec := s.builder.BuildConversionRecord(values, valid)
		if s.forwarder != nil {
			if err := s.forwarder.Forward(stream.Context(), rec); err != nil {
				log.Warn().Err(err).Msg("Error forwarding conversion record")
			}
		}
		rec.Release()
		observeEncoded(values)
	}
	return reader.Err()
}

func StartFlightServer(addr string, svc *ConverterFlightServer) {
	server := flight.NewFlightServer()
	server.RegisterFlightService(svc)

	if err := server.Init(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to init Flight server")
	}

	log.Info().Str("addr", addr).Msg("Starting FP16 Flight Server")
	if err := server.Serve(); err != nil {
		log.Fatal().Err(err).Msg("Flight server failed")
	}
}
