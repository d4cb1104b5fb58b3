package social

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/friends", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		var body struct {
			AddresseeID string `json:"addressee_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.AddresseeID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "addressee_id required")
		}
		f, err := svc.RequestFriend(c.Context(), userID, body.AddresseeID)
		if errors.Is(err, ErrSelfFriend) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	})

	r.Post("/friends/:id/respond", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil || body.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status required")
		}
		f, err := svc.Respond(c.Context(), userID, c.Params("id"), body.Status)
		if errors.Is(err, ErrBadStatus) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(f)
	})

	r.Get("/friends", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		friends, err := svc.Friends(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(friends)
	})

	r.Get("/friends/pending", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		pending, err := svc.PendingRequests(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(pending)
	})

	r.Get("/users/search", authMiddleware, func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q required")
		}
		users, err := svc.SearchUsers(c.Context(), q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(users)
	})

	r.Get("/leaderboard", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		entries, err := svc.Leaderboard(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(entries)
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		feed, err := svc.Feed(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(feed)
	})
}
