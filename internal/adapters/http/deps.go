package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tripfootprint/internal/core/usecases"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Footprints *usecases.FootprintService
	NATS       *nats.Conn
	DB         Pinger
	Cache      Pinger
	Version    string
	// DocsFile is the OpenAPI document served at /docs/openapi.yaml.
	DocsFile string
}
