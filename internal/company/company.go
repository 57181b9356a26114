package company

import (
	"log/slog"

	"siret-api/internal/company/accesslog"
	"siret-api/internal/company/handler"
	"siret-api/internal/company/service"
)

// Service exposes the establishment registry operations.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// Success messages returned in the detail envelope.
const (
	MsgInserted = service.MsgInserted
	MsgUpdated  = service.MsgUpdated
	MsgDeleted  = service.MsgDeleted
)

// Service options.
var (
	WithLogger    = service.WithLogger
	WithMetrics   = service.WithMetrics
	WithPublisher = service.WithPublisher
)

// NewService constructs the registry service on top of a store.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler, access logging to accessLogFile.
func NewHandler(s *Service, accessLogFile string, logger *slog.Logger) *Handler {
	return handler.New(s, accesslog.New(accessLogFile), logger)
}
