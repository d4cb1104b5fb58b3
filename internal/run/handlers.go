package run

import (
	"errors"
	"time"

	"backend-fitlog/internal/position"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, manager *Manager, store *Store, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id required")
		}
		started, err := manager.StartRun(c.Context(), userID)
		if errors.Is(err, ErrRunInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(started)
	})

	r.Post("/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		tracker, ok := manager.Tracker(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active run")
		}

		var sample position.Sample
		if err := c.BodyParser(&sample); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if sample.CapturedAt.IsZero() {
			sample.CapturedAt = time.Now()
		}

		if err := tracker.Ingest(sample); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		tracker, ok := manager.Tracker(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active run")
		}
		if err := tracker.Pause(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(tracker.Stats())
	})

	r.Post("/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		tracker, ok := manager.Tracker(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active run")
		}
		if err := tracker.Resume(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(tracker.Stats())
	})

	r.Post("/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		completed, err := manager.StopRun(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNoActiveRun) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if errors.Is(err, ErrFinalizeInFlight) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(completed)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := manager.DiscardRun(c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/live", func(c *fiber.Ctx) error {
		tracker, ok := manager.Tracker(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active run")
		}
		return c.JSON(tracker.Stats())
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		runs, err := store.ListRuns(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(runs)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		r, err := store.GetRun(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "run not found")
		}
		return c.JSON(r)
	})

	r.Get("/:id/waypoints", func(c *fiber.Ctx) error {
		wps, err := store.ListWaypoints(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(wps)
	})
}
