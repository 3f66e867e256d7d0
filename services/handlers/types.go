package handlers

import (
	"net/http"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// validationError maps a validator failure onto the envelope: a summary
// message with the per-field errors in Data.
func validationError(err error) error {
	return &shared.AppError{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed",
		Err:        err,
		Data:       dto.FormatValidationErrors(err),
	}
}

type AuthServiceInterface interface {
	SignUp(req dto.SignUpRequest) (*dto.AuthResponse, error)
	SignIn(req dto.SignInRequest) (*dto.AuthResponse, error)
	Session(userID string) (*dto.SessionResponse, error)
}

type JWTServiceInterface interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

type LearningServiceInterface interface {
	SubmitProgress(userID string, req dto.ProgressRequest) (*dto.ProgressResponse, error)
	Sync(userID string, req dto.SyncRequest) (*dto.SyncResponse, error)
	GetProgress(userID string) ([]model.ProgressUpdate, error)
	GetProfile(userID string) (*model.UserProfile, error)
	UpdateProfile(userID string, patch map[string]interface{}) (*model.UserProfile, error)
	ClaimBadge(userID, badgeID string) (*model.Badge, error)
	GetCourses(subject string) ([]model.Course, error)
	CreateCourse(userID string, req dto.CreateCourseRequest) (*model.Course, error)
	Analytics(userID, timeframe string) (*dto.AnalyticsResponse, error)
	AIChat(userID string, req dto.AIChatRequest) (*dto.AIChatResponse, error)
}
