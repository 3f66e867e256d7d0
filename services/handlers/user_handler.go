package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tutoo-mr/tutoo_core/shared"
)

type UserHandler struct {
	learningSvc LearningServiceInterface
}

func NewUserHandler(learningSvc LearningServiceInterface) *UserHandler {
	return &UserHandler{learningSvc: learningSvc}
}

// requireSelf rejects access to another user's resources. The dev backend
// has no parent-link table, so self-access is the only grant.
func requireSelf(c *fiber.Ctx) (string, error) {
	userID := c.Locals(shared.UserID).(string)
	if c.Params("userId") != userID {
		return "", shared.NewUnauthorizedError(nil, "Accès refusé")
	}
	return userID, nil
}

// @Summary Get profile
// @Description Fetch the learning profile of the authenticated user
// @Tags users
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=model.UserProfile}
// @Router /api/v1/users/{userId}/profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := requireSelf(c)
	if err != nil {
		return err
	}

	profile, err := h.learningSvc.GetProfile(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profil", profile)
}

// @Summary Update profile
// @Description Shallow-merge the provided fields into the profile. XP and level are ignored.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=model.UserProfile}
// @Router /api/v1/users/{userId}/profile [patch]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := requireSelf(c)
	if err != nil {
		return err
	}

	var patch map[string]interface{}
	if err := c.BodyParser(&patch); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	profile, err := h.learningSvc.UpdateProfile(userID, patch)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profil mis à jour", profile)
}

// @Summary List progress events
// @Description All recorded progress events for the user, most recent first
// @Tags users
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=[]model.ProgressUpdate}
// @Router /api/v1/users/{userId}/progress [get]
func (h *UserHandler) GetProgress(c *fiber.Ctx) error {
	userID, err := requireSelf(c)
	if err != nil {
		return err
	}

	updates, err := h.learningSvc.GetProgress(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Progression", updates)
}

// @Summary Learning analytics
// @Description Aggregated lesson, XP and time totals over a timeframe (week, month, year)
// @Tags users
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Param timeframe query string false "week, month or year" default(week)
// @Success 200 {object} shared.Response{data=dto.AnalyticsResponse}
// @Router /api/v1/users/{userId}/analytics [get]
func (h *UserHandler) Analytics(c *fiber.Ctx) error {
	userID, err := requireSelf(c)
	if err != nil {
		return err
	}

	resp, err := h.learningSvc.Analytics(userID, c.Query("timeframe", "week"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Statistiques", resp)
}

// @Summary Claim a badge
// @Description Mark an eligible badge as earned. Claiming twice is a conflict.
// @Tags users
// @Produce json
// @Security Bearer
// @Param userId path string true "User ID"
// @Param badgeId path string true "Badge ID"
// @Success 200 {object} shared.Response{data=model.Badge}
// @Router /api/v1/users/{userId}/badges/{badgeId}/claim [post]
func (h *UserHandler) ClaimBadge(c *fiber.Ctx) error {
	userID, err := requireSelf(c)
	if err != nil {
		return err
	}

	badge, err := h.learningSvc.ClaimBadge(userID, c.Params("badgeId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Badge obtenu", badge)
}
