package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/engine"
	"github.com/clearhours/trackd/internal/entry"
	terrors "github.com/clearhours/trackd/internal/errors"
	"github.com/clearhours/trackd/internal/gate"
	"github.com/clearhours/trackd/internal/health"
)

// Version is reported by GET /api/v1/status.
const Version = "1.0.0"

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine  *engine.Engine
	checker *health.Checker
	logger  zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, checker *health.Checker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		engine:  eng,
		checker: checker,
		logger:  logger.With().Str("component", "handlers").Logger(),
	}
}

// ListPending handles GET /api/v1/pending.
func (h *Handlers) ListPending(c *fiber.Ctx) error {
	pending, err := h.engine.GetPendingEntries(c.Context())
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"store_error", "Internal Server Error",
			err.Error())
	}
	if pending == nil {
		pending = []entry.Pending{}
	}
	return c.JSON(PendingListResponse{Entries: pending, Total: len(pending)})
}

// ApprovePending handles POST /api/v1/pending/:id/approve.
func (h *Handlers) ApprovePending(c *fiber.Ctx) error {
	id := c.Params("id")

	var req ApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}

	committed, err := h.engine.ApprovePending(c.Context(), id, req.ConfirmedMinutes)
	if err != nil {
		switch {
		case errors.Is(err, terrors.ErrNotFound):
			return problemResponse(c, fiber.StatusNotFound,
				"pending_not_found", "Not Found",
				"Pending entry not found: "+id)
		case errors.Is(err, terrors.ErrInvalidInput):
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_minutes", "Bad Request",
				"confirmed_minutes must be positive")
		default:
			return problemResponse(c, fiber.StatusInternalServerError,
				"approve_failed", "Internal Server Error",
				err.Error())
		}
	}

	return c.JSON(CommittedResponse{Entry: committed})
}

// RejectPending handles POST /api/v1/pending/:id/reject.
func (h *Handlers) RejectPending(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.engine.RejectPending(c.Context(), id); err != nil {
		if errors.Is(err, terrors.ErrNotFound) {
			return problemResponse(c, fiber.StatusNotFound,
				"pending_not_found", "Not Found",
				"Pending entry not found: "+id)
		}
		return problemResponse(c, fiber.StatusInternalServerError,
			"reject_failed", "Internal Server Error",
			err.Error())
	}

	return c.JSON(fiber.Map{"ok": true})
}

// GetPolicy handles GET /api/v1/policy.
func (h *Handlers) GetPolicy(c *fiber.Ctx) error {
	return c.JSON(h.engine.Policy())
}

// PatchPolicy handles PATCH /api/v1/policy.
func (h *Handlers) PatchPolicy(c *fiber.Ctx) error {
	var patch gate.Patch
	if err := c.BodyParser(&patch); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	policy, err := h.engine.UpdatePolicy(patch)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_policy", "Bad Request",
			err.Error())
	}

	return c.JSON(policy)
}

// RunSync handles POST /api/v1/sync.
func (h *Handlers) RunSync(c *fiber.Ctx) error {
	result, err := h.engine.RunSyncOnce(c.Context())
	if err != nil {
		if errors.Is(err, terrors.ErrSyncInProgress) {
			return problemResponse(c, fiber.StatusConflict,
				"sync_in_progress", "Conflict",
				"A sync cycle is already running")
		}
		return problemResponse(c, fiber.StatusInternalServerError,
			"sync_failed", "Internal Server Error",
			err.Error())
	}

	return c.JSON(SyncResponse{Result: result})
}

// StartAutoSync handles POST /api/v1/sync/start.
func (h *Handlers) StartAutoSync(c *fiber.Ctx) error {
	h.engine.StartAutoSync()
	return c.JSON(AutoSyncResponse{Active: h.engine.AutoSyncActive()})
}

// StopAutoSync handles POST /api/v1/sync/stop.
func (h *Handlers) StopAutoSync(c *fiber.Ctx) error {
	h.engine.StopAutoSync()
	return c.JSON(AutoSyncResponse{Active: h.engine.AutoSyncActive()})
}

// GetStatus handles GET /api/v1/status.
func (h *Handlers) GetStatus(c *fiber.Ctx) error {
	status, err := h.engine.CurrentStatus(c.Context())
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"store_error", "Internal Server Error",
			err.Error())
	}
	return c.JSON(StatusResponse{Status: status, Version: Version})
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if h.checker != nil && !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
