package http

import (
	"github.com/nats-io/nats.go"

	"github.com/oyvstu/vegplan/internal/adapters/postgres"
	"github.com/oyvstu/vegplan/internal/adapters/valkey"
	"github.com/oyvstu/vegplan/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Roads     *usecases.RoadService
	Placement *usecases.PlacementService
	Plans     *usecases.PlanService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
