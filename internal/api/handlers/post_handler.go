package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type PostHandler struct {
	s service.PostService
	v service.ValidatorService
}

func NewPostHandler(service service.PostService, validator service.ValidatorService) *PostHandler {
	return &PostHandler{s: service, v: validator}
}

func (h *PostHandler) CreateDraft(c *fiber.Ctx) error {
	var req transfer.PostCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	id, err := h.s.CreateDraft(c.Context(), GetUserID(c), GetWorkspaceID(c), &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Draft created successfully",
		"post_id": id,
	})
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}
	req.PostID = int64(postID)

	ids, err := h.s.SchedulePost(c.Context(), GetWorkspaceID(c), &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Post scheduled successfully",
		"schedule_ids": ids,
	})
}

func (h *PostHandler) ListSchedules(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	schedules, err := h.s.ListSchedules(c.Context(), GetWorkspaceID(c), int64(postID))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(schedules)
}

func (h *PostHandler) ListActivity(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	logs, err := h.s.ListActivity(c.Context(), GetWorkspaceID(c), int64(postID))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(logs)
}

// ValidatePost runs the pre-publish checks without publishing.
func (h *PostHandler) ValidatePost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil || postID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	// Ownership check; the validator itself is workspace-agnostic.
	if _, err := h.s.ListSchedules(c.Context(), GetWorkspaceID(c), int64(postID)); err != nil {
		return errorResponse(c, err)
	}

	result := h.v.Validate(c.Context(), int64(postID))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid":    result.Valid,
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

func (h *PostHandler) CancelSchedule(c *fiber.Ctx) error {
	scheduleID, err := c.ParamsInt("id")
	if err != nil || scheduleID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule id",
		})
	}

	if err := h.s.CancelSchedule(c.Context(), GetWorkspaceID(c), int64(scheduleID)); err != nil {
		return errorResponse(c, err)
	}
	slog.Info("schedule cancelled", "schedule_id", scheduleID, "user_id", GetUserID(c))

	return c.SendStatus(fiber.StatusOK)
}
