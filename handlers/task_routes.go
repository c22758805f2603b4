// handlers/task_routes.go
package handlers

import (
	"strconv"

	"engage-points-system/services"
	"engage-points-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, tasks *services.TaskService) {
	api := app.Group("/api")

	// Create a catalog task (admin action). Multipart so the task image can
	// be uploaded in the same request.
	api.Post("/tasks", func(c *fiber.Ctx) error {
		title := c.FormValue("title")

		points := int64(0)
		if raw := c.FormValue("points"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "points must be an integer"})
			}
			points = parsed
		}

		params := services.CreateTaskParams{
			Title:  title,
			Points: points,
			URL:    optionalFormValue(c, "url"),
		}

		if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
			url, uploadErr := utils.StoreImage(fileHeader, utils.ObjectKey("tasks", title, fileHeader.Filename))
			if uploadErr != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "image upload failed",
					"cause": uploadErr.Error(),
				})
			}
			params.Image = &url
		}

		task, err := tasks.CreateTask(params)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Task created successfully",
			"task":    task,
		})
	})

	api.Get("/tasks", func(c *fiber.Ctx) error {
		catalog, err := tasks.ListTasks()
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(catalog)
	})

	api.Patch("/tasks/:task_id", func(c *fiber.Ctx) error {
		var fields map[string]interface{}
		if err := c.BodyParser(&fields); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		task, err := tasks.UpdateTaskFields(c.Params("task_id"), fields)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "Task updated successfully",
			"task":    task,
		})
	})
}
