// model/offline.go
package model

import (
	"encoding/json"
	"time"
)

// Setting is a single last-write-wins cell in local durable storage. No
// cross-key transactions exist or are needed.
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressRecord is the local append-only progress log. Rows with Pending
// set form the sync queue; a successful batch flush clears the flag but
// keeps the row as history.
type ProgressRecord struct {
	EventID   string     `json:"event_id" gorm:"primaryKey"`
	LessonID  string     `json:"lesson_id" gorm:"not null;index"`
	Completed bool       `json:"completed"`
	Stars     int        `json:"stars"`
	TimeSpent int        `json:"time_spent"` // seconds
	XPEarned  int        `json:"xp_earned"`
	Pending   bool       `json:"pending" gorm:"index"`
	SyncedAt  *time.Time `json:"synced_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *ProgressRecord) ToUpdate() ProgressUpdate {
	return ProgressUpdate{
		EventID:   r.EventID,
		LessonID:  r.LessonID,
		Completed: r.Completed,
		Stars:     r.Stars,
		TimeSpent: r.TimeSpent,
		XPEarned:  r.XPEarned,
		Timestamp: r.CreatedAt,
	}
}

// CachedCourse holds a stripped course payload for offline lesson viewing.
// Video references are removed before caching; the cache is bounded, not a
// full mirror.
type CachedCourse struct {
	ID       string          `json:"id" gorm:"primaryKey"`
	Subject  string          `json:"subject" gorm:"index"`
	Title    string          `json:"title"`
	Payload  json.RawMessage `json:"payload" gorm:"type:text"`
	Size     int             `json:"size"`
	CachedAt time.Time       `json:"cached_at"`
}
