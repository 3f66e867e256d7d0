package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/shared"
)

type SyncHandler struct {
	learningSvc LearningServiceInterface
}

func NewSyncHandler(learningSvc LearningServiceInterface) *SyncHandler {
	return &SyncHandler{learningSvc: learningSvc}
}

// @Summary Submit a progress event
// @Description Record one lesson completion. Replaying an event id is a no-op returning the current profile.
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param progressRequest body dto.ProgressRequest true "Progress event"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress [post]
func (h *SyncHandler) SubmitProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	resp, err := h.learningSvc.SubmitProgress(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Progression enregistrée", resp)
}

// @Summary Sync queued progress events
// @Description Batch-ingest events queued while offline. Duplicate event ids are counted, not errors.
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param syncRequest body dto.SyncRequest true "Queued events"
// @Success 200 {object} shared.Response{data=dto.SyncResponse}
// @Router /api/v1/sync [post]
func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	resp, err := h.learningSvc.Sync(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Synchronisation terminée", resp)
}
