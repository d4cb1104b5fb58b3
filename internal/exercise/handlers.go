package exercise

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/muscle-groups", func(c *fiber.Ctx) error {
		groups, err := svc.MuscleGroups(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(groups)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		exercises, err := svc.List(c.Context(), userID, c.Query("muscle_group_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(exercises)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		e, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "exercise not found")
		}
		return c.JSON(e)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		var req CreateExerciseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" || req.MuscleGroupID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and muscle_group_id required")
		}
		e, err := svc.CreateCustom(c.Context(), userID, req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		err := svc.DeleteCustom(c.Context(), userID, c.Params("id"))
		if errors.Is(err, ErrNotOwner) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "exercise not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
