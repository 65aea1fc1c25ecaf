package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(string)
	id, _ := strconv.ParseInt(userID, 10, 64)
	return id
}

func GetWorkspaceID(c *fiber.Ctx) int64 {
	workspaceID, _ := c.Locals("workspace_id").(int64)
	return workspaceID
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidScheduleRequest), errors.Is(err, service.ErrInvalidPost):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrScheduleNotPending):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
