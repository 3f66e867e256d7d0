package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// @Summary Register a new account
// @Description Create a user with a fresh learning profile and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param signUpRequest body dto.SignUpRequest true "Registration details"
// @Success 201 {object} shared.Response{data=dto.AuthResponse}
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	resp, err := h.authSvc.SignUp(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Compte créé", resp)
}

// @Summary Sign in
// @Description Authenticate by email and password and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param signInRequest body dto.SignInRequest true "Credentials"
// @Success 200 {object} shared.Response{data=dto.AuthResponse}
// @Router /api/v1/auth/signin [post]
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	resp, err := h.authSvc.SignIn(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Connexion réussie", resp)
}

// @Summary Sign out
// @Description End the current session. Tokens are stateless so this is advisory.
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, "Déconnexion réussie", nil)
}

// @Summary Current session
// @Description Resolve the bearer token into the current user and profile
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.authSvc.Session(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Session active", resp)
}
