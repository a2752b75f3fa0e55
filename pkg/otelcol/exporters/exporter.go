package exporters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
)

// New builds the OTLP trace exporter selected by OTEL.PROTOCOL.
func New(cfg *config.Config) (*otlptrace.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch strings.ToLower(cfg.Otel.Protocol) {
	case "grpc", "":
		return ProvideGrpc(ctx, cfg)
	case "http", "http/protobuf":
		return ProvideHttp(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported otel protocol %q", cfg.Otel.Protocol)
	}
}
