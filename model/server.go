// model/server.go
package model

import (
	"encoding/json"
	"time"
)

// Server-side models for the dev backend. Profiles are stored as JSON
// payloads so PATCH stays a shallow merge, matching the production store.

type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"unique;not null"`
	Nickname  string `gorm:"not null"`
	UserType  string `gorm:"default:student"`
	Password  string
	LastLogin time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProfileRecord struct {
	UserID    string          `gorm:"primaryKey"`
	Payload   json.RawMessage `gorm:"type:text"`
	UpdatedAt time.Time
}

// ProgressEntry rows are keyed by the client-generated event id, which is
// what makes sync ingestion idempotent under at-least-once delivery.
type ProgressEntry struct {
	EventID   string `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index"`
	LessonID  string `gorm:"not null"`
	Completed bool
	Stars     int
	TimeSpent int
	XPEarned  int
	Timestamp time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (e *ProgressEntry) ToUpdate() ProgressUpdate {
	return ProgressUpdate{
		EventID:   e.EventID,
		LessonID:  e.LessonID,
		Completed: e.Completed,
		Stars:     e.Stars,
		TimeSpent: e.TimeSpent,
		XPEarned:  e.XPEarned,
		Timestamp: e.Timestamp,
	}
}

type CourseRecord struct {
	ID        string `gorm:"primaryKey"`
	Subject   string `gorm:"index"`
	CreatedBy string
	Payload   json.RawMessage `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Conversation logs assistant exchanges for later curriculum tuning.
type Conversation struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Query     string `gorm:"type:text"`
	Response  string `gorm:"type:text"`
	Context   string `gorm:"type:text"`
	Language  string
	CreatedAt time.Time
}
