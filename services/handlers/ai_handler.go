package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/shared"
)

type AIHandler struct {
	learningSvc LearningServiceInterface
}

func NewAIHandler(learningSvc LearningServiceInterface) *AIHandler {
	return &AIHandler{learningSvc: learningSvc}
}

// @Summary Ask the learning assistant
// @Description Bilingual study help scoped to the current lesson context
// @Tags ai
// @Accept json
// @Produce json
// @Security Bearer
// @Param aiChatRequest body dto.AIChatRequest true "Question and lesson context"
// @Success 200 {object} shared.Response{data=dto.AIChatResponse}
// @Router /api/v1/ai/chat [post]
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.AIChatRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	resp, err := h.learningSvc.AIChat(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Réponse de l'assistant", resp)
}
