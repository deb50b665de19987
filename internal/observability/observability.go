// Package observability configures the process-wide logging pipeline.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/florianilch/mellon"

// Instrument installs the process-wide default slog handler: plain text or
// JSON to stderr, or an OTLP log bridge when export is configured through
// the standard OTEL_* environment variables.
func Instrument(level slog.Level, format string) error {
	var handler slog.Handler

	if otlpConfigured() {
		otelHandler, err := newOTelHandler(level)
		if err != nil {
			return err
		}
		handler = otelHandler
	} else {
		opts := &slog.HandlerOptions{Level: level}
		switch format {
		case "json":
			handler = slog.NewJSONHandler(os.Stderr, opts)
		case "text", "":
			handler = slog.NewTextHandler(os.Stderr, opts)
		default:
			return fmt.Errorf("unknown log format %q", format)
		}
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func otlpConfigured() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT") != "" ||
		os.Getenv("OTEL_LOGS_EXPORTER") != ""
}

// newOTelHandler bridges slog into the OpenTelemetry log SDK. Records below
// the configured level are dropped by a severity processor before they
// reach the exporter.
func newOTelHandler(level slog.Level) (slog.Handler, error) {
	exporter, err := newExporter(context.Background())
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	global.SetLoggerProvider(provider)

	return otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)), nil
}

func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	switch {
	case os.Getenv("OTEL_LOGS_EXPORTER") == "console":
		return stdoutlog.New()
	case os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc":
		return otlploggrpc.New(ctx)
	default:
		return otlploghttp.New(ctx)
	}
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
