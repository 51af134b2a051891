package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/23skdu/longbow-fp16/internal/client"
	"github.com/23skdu/longbow-fp16/internal/console"
)

var (
	modeFlag       = flag.String("mode", "encode", "Conversion direction: 'encode' (decimal to FP16 hex) or 'decode' (FP16 hex to decimal)")
	interactive    = flag.Bool("interactive", false, "Interactive prompt mode")
	cpuProfile     = flag.String("cpuprofile", "", "Write cpu profile to file")
	logLevel       = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	listenAddr     = flag.String("listen", "", "Address to listen on for HTTP Server (e.g. :8080)")
	flightAddr     = flag.String("flight", "", "Address to listen on for Flight Server (e.g. :9090)")
	serverAddr     = flag.String("server", "", "Flight sink address receiving conversion records (e.g., localhost:3000)")
	datasetName    = flag.String("dataset", "fp16_conversions", "Target dataset name on the Flight sink")
	maxConcurrent  = flag.Int("max-concurrent", 1<<20, "Maximum number of values converted concurrently by the servers")
	enableOTel     = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	breakerFails   = flag.Int("breaker-failures", 5, "Consecutive sink failures before forwarding is suspended")
	breakerTimeout = flag.Duration("breaker-timeout", 30*time.Second, "Wait before probing a failed sink again")
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	if err := checkMaxConcurrent(*maxConcurrent); err != nil {
		log.Fatal().Err(err).Msg("Invalid -max-concurrent")
	}

	mode, err := console.ParseMode(*modeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid mode")
	}

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	if *listenAddr != "" || *flightAddr != "" {
		runServers()
		return
	}

	if *interactive {
		if err := console.NewSession(mode, os.Stdin, os.Stdout).Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("Interactive session failed")
		}
		return
	}

	if flag.NArg() == 0 {
		log.Warn().Msg("No values given; pass values as arguments or use -interactive")
		flag.Usage()
		return
	}
	if err := console.Convert(mode, strings.Join(flag.Args(), ","), os.Stdout); err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Msg("Conversion failed")
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func checkMaxConcurrent(n int) error {
	if n < 1 {
		return fmt.Errorf("max-concurrent must be at least 1, got %d", n)
	}
	return nil
}

func runServers() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fwd Forwarder
	if *serverAddr != "" {
		fc, err := client.NewFlightClient(*serverAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create flight client")
		}
		defer func() {
			if err := fc.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close flight client")
			}
		}()
		log.Info().Str("addr", *serverAddr).Str("dataset", *datasetName).Msg("Connected to Flight sink")
		breaker := client.NewCircuitBreaker("flight_sink", *breakerFails, *breakerTimeout)
		fwd = client.NewForwarder(fc, *datasetName, breaker)
	}

	if *listenAddr != "" {
		srv := NewServer(fwd, *maxConcurrent)
		if *flightAddr == "" {
			startServer(*listenAddr, srv)
			return
		}
		go startServer(*listenAddr, srv)
	}

	go StartFlightServer(*flightAddr, NewConverterFlightServer(fwd))
	<-ctx.Done()
	log.Info().Msg("Shutting down")
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("fp16conv"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
