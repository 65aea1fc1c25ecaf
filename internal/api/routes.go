package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/api/handlers"
)

// RegisterRoutes mounts the operator API under /api behind auth.
func RegisterRoutes(app fiber.Router, auth fiber.Handler, post *handlers.PostHandler, scheduler *handlers.SchedulerHandler) {
	api := app.Group("/api")
	api.Use(auth)

	api.Post("/posts", post.CreateDraft)
	api.Post("/posts/:id/schedule", post.SchedulePost)
	api.Get("/posts/:id/schedules", post.ListSchedules)
	api.Get("/posts/:id/activity", post.ListActivity)
	api.Get("/posts/:id/validate", post.ValidatePost)
	api.Post("/schedules/:id/cancel", post.CancelSchedule)

	api.Post("/scheduler/run", scheduler.RunNow)
	api.Post("/scheduler/enqueue", scheduler.Enqueue)
}
