package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// HealthCheck probes one dependency. A nil Check reports the dependency as
// disabled without affecting readiness.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// StoreCheck pings the ticket store.
func StoreCheck(driver string, store repository.Store) HealthCheck {
	return HealthCheck{Name: driver, Check: store.Ping}
}

// RedisCheck pings Redis when it is configured.
func RedisCheck(redis *persistence.Redis) HealthCheck {
	if !redis.Enabled() {
		return HealthCheck{Name: "redis"}
	}
	return HealthCheck{Name: "redis", Check: redis.Ping}
}

// SchemaCheck fails until migrations have been applied.
func SchemaCheck(db *sql.DB, driver string) HealthCheck {
	return HealthCheck{Name: "schema", Check: func(context.Context) error {
		version, err := persistence.MigrationStatus(db, driver)
		if err != nil {
			return err
		}
		if version == 0 {
			return errors.New("no migrations applied")
		}
		return nil
	}}
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	started     time.Time
	checks      []HealthCheck
}

// NewHealthHandler returns a handler running checks in order on every readiness probe.
func NewHealthHandler(serviceName, version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, started: time.Now(), checks: checks}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		if check.Check == nil {
			depStatus[check.Name] = "disabled"
			continue
		}
		if err := check.Check(ctx); err != nil {
			depStatus[check.Name] = fmt.Sprintf("error: %v", err)
			ready = false
			continue
		}
		depStatus[check.Name] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
