package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type SchedulerHandler struct {
	s            service.SchedulerService
	client       queue.Enqueuer
	defaultLimit int
	uniqueFor    time.Duration
}

func NewSchedulerHandler(scheduler service.SchedulerService, client queue.Enqueuer, defaultLimit int, uniqueFor time.Duration) *SchedulerHandler {
	return &SchedulerHandler{
		s:            scheduler,
		client:       client,
		defaultLimit: defaultLimit,
		uniqueFor:    uniqueFor,
	}
}

func (h *SchedulerHandler) limit(c *fiber.Ctx) (int, error) {
	var req transfer.RunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return 0, err
		}
	}
	if req.Limit <= 0 {
		return h.defaultLimit, nil
	}
	return req.Limit, nil
}

// RunNow executes one scheduler pass inside the request.
func (h *SchedulerHandler) RunNow(c *fiber.Ctx) error {
	limit, err := h.limit(c)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	result, err := h.s.RunOnce(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Enqueue hands a scheduler pass to the worker pool.
func (h *SchedulerHandler) Enqueue(c *fiber.Ctx) error {
	limit, err := h.limit(c)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	if err := queue.EnqueueRun(h.client, queue.RunSchedulerPayload{Limit: limit}, h.uniqueFor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error queueing scheduler run",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Scheduler run queued",
	})
}
