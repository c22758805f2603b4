// handlers/user_routes.go
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"engage-points-system/services"
	"engage-points-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, users *services.UserService, assignments *services.AssignmentService, ranking *services.RankingService) {
	api := app.Group("/api")

	// Register a new user. Multipart so an avatar can ride along; the file is
	// resolved to a public URL before the service sees anything.
	api.Post("/users", func(c *fiber.Ctx) error {
		name := c.FormValue("name")
		tgID := c.FormValue("tg_id")

		params := services.CreateUserParams{
			Name:      name,
			TgID:      tgID,
			Wallet:    optionalFormValue(c, "wallet"),
			InvitedBy: optionalFormValue(c, "invited_by"),
		}

		if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
			url, uploadErr := utils.StoreImage(fileHeader, utils.ObjectKey("avatars", name, fileHeader.Filename))
			if uploadErr != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "avatar upload failed",
					"cause": uploadErr.Error(),
				})
			}
			params.Avatar = &url
		}

		user, err := users.CreateUser(params)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "User created successfully",
			"user":    user,
		})
	})

	// Fetch by Telegram id, optionally projected: ?field=points or
	// ?field=points,referral_code
	api.Get("/users/tg/:tg_id", func(c *fiber.Ctx) error {
		var fields []string
		if raw := c.Query("field"); raw != "" {
			for _, f := range strings.Split(raw, ",") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
		}

		user, err := users.GetUser(c.Params("tg_id"), fields)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(user)
	})

	api.Patch("/users/tg/:tg_id", func(c *fiber.Ctx) error {
		var fields map[string]interface{}
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		user, err := users.UpdateUserFields(c.Params("tg_id"), fields)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "User updated successfully",
			"user":    user,
		})
	})

	api.Get("/users/tg/:tg_id/tasks", func(c *fiber.Ctx) error {
		tasks, err := assignments.ListUserTasks(c.Params("tg_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(tasks)
	})

	// Assign a single catalog task. An already-held task is a benign no-op:
	// the existing assignment comes back with 200 instead of an error.
	api.Post("/users/tg/:tg_id/tasks", func(c *fiber.Ctx) error {
		var req struct {
			TaskID string `json:"task_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.TaskID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task_id is required"})
		}

		assignment, err := assignments.AssignTask(c.Params("tg_id"), req.TaskID)
		if errors.Is(err, services.ErrAlreadyAssigned) {
			return c.JSON(fiber.Map{
				"message":    "Task already assigned",
				"assignment": assignment,
			})
		}
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":    "Task assigned successfully",
			"assignment": assignment,
		})
	})

	api.Post("/users/tg/:tg_id/tasks/assign-all", func(c *fiber.Ctx) error {
		created, err := assignments.AssignAllCatalogTasks(c.Params("tg_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"assigned":    len(created),
			"assignments": created,
		})
	})

	api.Put("/users/tg/:tg_id/tasks/:task_id/complete", func(c *fiber.Ctx) error {
		assignment, err := assignments.CompleteTask(c.Params("tg_id"), c.Params("task_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"message":    "Task status updated",
			"assignment": assignment,
		})
	})

	api.Get("/users/tg/:tg_id/referrals", func(c *fiber.Ctx) error {
		count, err := users.CountReferrals(c.Params("tg_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{"referralCount": count})
	})

	api.Get("/users/tg/:tg_id/referrals/list", func(c *fiber.Ctx) error {
		referred, err := users.ListReferrals(c.Params("tg_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(referred)
	})

	api.Get("/users/tg/:tg_id/rank", func(c *fiber.Ctx) error {
		rank, err := ranking.Rank(c.Params("tg_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{"rank": rank})
	})

	api.Get("/users/top/:limit", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Params("limit"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be an integer"})
		}

		top, err := ranking.TopN(limit)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(top)
	})
}

// optionalFormValue returns nil for absent/empty form fields so the models
// keep NULL instead of empty strings.
func optionalFormValue(c *fiber.Ctx, key string) *string {
	if v := c.FormValue(key); v != "" {
		return &v
	}
	return nil
}
