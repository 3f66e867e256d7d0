package dto

import (
	"encoding/json"
	"time"

	"github.com/tutoo-mr/tutoo_core/model"
)

// Envelope is the uniform result shape of every backend call. Callers must
// branch on Success and never assume Data is present on failure.
type Envelope struct {
	Code    int             `json:"code"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ==================== AUTH ====================

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Nickname string `json:"nickname" validate:"required,nickname"`
	UserType string `json:"userType" validate:"omitempty,oneof=student teacher parent"`
}

func (r SignUpRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r SignInRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UserInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	UserType  string    `json:"userType"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token   string            `json:"token"`
	User    UserInfo          `json:"user"`
	Profile model.UserProfile `json:"profile"`
}

// SessionResponse carries enough for the app to resume without a fresh
// sign-in: the restored identity plus the server's copy of the profile.
type SessionResponse struct {
	UserID      string             `json:"userId"`
	AccessToken string             `json:"accessToken,omitempty"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	User        UserInfo           `json:"user"`
	Profile     *model.UserProfile `json:"profile,omitempty"`
}

// ==================== PROGRESS ====================

type ProgressRequest struct {
	EventID   string `json:"eventId" validate:"required"`
	LessonID  string `json:"lessonId" validate:"required"`
	Completed bool   `json:"completed"`
	Stars     int    `json:"stars" validate:"min=0,max=3"`
	TimeSpent int    `json:"timeSpent" validate:"min=0"`
	XPEarned  int    `json:"xpEarned" validate:"min=0"`
}

func (r ProgressRequest) Validate() error {
	return GetValidator().Struct(r)
}

func (r ProgressRequest) ToUpdate(now time.Time) model.ProgressUpdate {
	return model.ProgressUpdate{
		EventID:   r.EventID,
		LessonID:  r.LessonID,
		Completed: r.Completed,
		Stars:     r.Stars,
		TimeSpent: r.TimeSpent,
		XPEarned:  r.XPEarned,
		Timestamp: now,
	}
}

// ProgressResponse returns the accepted event plus the server-side profile
// after XP application, so clients reconcile instead of recomputing.
type ProgressResponse struct {
	Event   model.ProgressUpdate `json:"event"`
	Profile *model.UserProfile   `json:"profile,omitempty"`
}

type SyncRequest struct {
	Updates []model.ProgressUpdate `json:"updates" validate:"required,dive"`
}

func (r SyncRequest) Validate() error {
	return GetValidator().Struct(r)
}

// SyncResponse reports how many events were newly ingested versus already
// known. Duplicates are expected under at-least-once delivery, not errors.
type SyncResponse struct {
	Synced     int `json:"synced"`
	Duplicates int `json:"duplicates"`
}

// ==================== COURSES ====================

type CreateCourseRequest struct {
	Subject       string         `json:"subject" validate:"required"`
	Title         string         `json:"title" validate:"required"`
	Lessons       []model.Lesson `json:"lessons"`
	Description   string         `json:"description"`
	EstimatedTime string         `json:"estimatedTime"`
	AgeGroup      string         `json:"ageGroup"`
	Unlocked      bool           `json:"unlocked"`
}

func (r CreateCourseRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== AI ASSISTANT ====================

type AIContext struct {
	CurrentLesson string `json:"currentLesson,omitempty"`
	Subject       string `json:"subject,omitempty"`
	UserLevel     int    `json:"userLevel,omitempty"`
}

type AIChatRequest struct {
	Query    string    `json:"query" validate:"required"`
	Context  AIContext `json:"context"`
	Language string    `json:"language" validate:"omitempty,oneof=fr ar"`
}

func (r AIChatRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AIChatResponse struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
}

// ==================== ANALYTICS ====================

type AnalyticsResponse struct {
	TotalLessons   int       `json:"totalLessons"`
	TotalXP        int       `json:"totalXp"`
	TotalTimeSpent int       `json:"totalTimeSpent"`
	AverageStars   float64   `json:"averageStars"`
	Timeframe      string    `json:"timeframe"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

// ==================== MISC ====================

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type StorageInfo struct {
	Used       int64   `json:"used"`
	Available  int64   `json:"available"`
	Percentage float64 `json:"percentage"`
}
