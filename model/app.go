// model/app.go
package model

import "time"

// UserProfile is the central mutable entity. It is owned by the state
// controller; everything else gets copies or read access.
type UserProfile struct {
	ID               string            `json:"id"`
	Nickname         string            `json:"nickname"`
	UserType         string            `json:"userType"`
	Avatar           string            `json:"avatar"` // football, wizard, dragon, space
	Level            int               `json:"level"`
	XP               int               `json:"xp"`
	XPToNextLevel    int               `json:"xpToNextLevel"`
	TotalXP          int               `json:"totalXp"`
	Streak           int               `json:"streak"`
	Badges           []Badge           `json:"badges"`
	UnlockedStickers []string          `json:"unlockedStickers"`
	WeeklyProgress   []WeeklyProgress  `json:"weeklyProgress"` // 7 daily buckets, oldest first
	AreasToImprove   []ImprovementArea `json:"areasToImprove"`
	LastActivityDate *time.Time        `json:"lastActivityDate,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// EarnedBadgeIDs returns the ids of badges the user has actually earned,
// not merely seen in the catalog.
func (p *UserProfile) EarnedBadgeIDs() map[string]bool {
	earned := make(map[string]bool, len(p.Badges))
	for _, b := range p.Badges {
		if b.Earned {
			earned[b.ID] = true
		}
	}
	return earned
}

// MergeBadges inserts newly earned badges, overwriting catalog entries that
// were present but unearned. Insertion order of the set is irrelevant.
func (p *UserProfile) MergeBadges(newBadges []Badge) {
	for _, nb := range newBadges {
		replaced := false
		for i, b := range p.Badges {
			if b.ID == nb.ID {
				p.Badges[i] = nb
				replaced = true
				break
			}
		}
		if !replaced {
			p.Badges = append(p.Badges, nb)
		}
	}
}

// Badge invariant: EarnedDate is non-nil iff Earned is true, and is set
// exactly once on first earning.
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	EarnedDate  *time.Time `json:"earnedDate,omitempty"`
	Category    string     `json:"category"` // progress, streak, mastery, special
	Rarity      string     `json:"rarity,omitempty"`
}

type WeeklyProgress struct {
	Date             string `json:"date"`
	Day              string `json:"day"`
	LessonsCompleted int    `json:"lessonsCompleted"`
	XPEarned         int    `json:"xpEarned"`
	TimeSpent        int    `json:"timeSpent,omitempty"` // minutes
}

type ImprovementArea struct {
	Subject          string   `json:"subject"`
	Topic            string   `json:"topic"`
	Score            int      `json:"score"`
	Icon             string   `json:"icon,omitempty"`
	SuggestedLessons []string `json:"suggestedLessons,omitempty"`
}

// Course totalProgress is not recomputed automatically; callers keep it
// consistent with the mean of lesson progress.
type Course struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject"`
	Title         string   `json:"title"`
	Lessons       []Lesson `json:"lessons"`
	TotalProgress int      `json:"totalProgress"`
	Unlocked      bool     `json:"unlocked"`
	Description   string   `json:"description,omitempty"`
	EstimatedTime string   `json:"estimatedTime,omitempty"`
	AgeGroup      string   `json:"ageGroup,omitempty"`
	CreatedBy     string   `json:"createdBy,omitempty"`
}

type Lesson struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Type          string   `json:"type"` // video, quiz, exercise, interactive
	Subject       string   `json:"subject,omitempty"`
	Completed     bool     `json:"completed"`
	Progress      int      `json:"progress"` // 0-100
	XPReward      int      `json:"xpReward"`
	Stars         int      `json:"stars"` // 0-3
	VideoURL      string   `json:"videoUrl,omitempty"`
	Description   string   `json:"description,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// ProgressUpdate is immutable once created. It is the unit of both the
// remote sync protocol and the offline queue; EventID makes server-side
// ingestion idempotent under at-least-once delivery.
type ProgressUpdate struct {
	EventID   string    `json:"eventId"`
	LessonID  string    `json:"lessonId"`
	Completed bool      `json:"completed"`
	Stars     int       `json:"stars"`
	TimeSpent int       `json:"timeSpent"` // seconds
	XPEarned  int       `json:"xpEarned"`
	Timestamp time.Time `json:"timestamp"`
}

// AppState is exclusively owned by the state controller, which is its only
// writer.
type AppState struct {
	CurrentScreen   string       `json:"currentScreen"`
	Language        string       `json:"language"`
	SelectedSubject string       `json:"selectedSubject,omitempty"`
	SelectedCourse  *Course      `json:"selectedCourse,omitempty"`
	SelectedLesson  *Lesson      `json:"selectedLesson,omitempty"`
	UserType        string       `json:"userType"`
	IsOffline       bool         `json:"isOffline"`
	SidebarVisible  bool         `json:"sidebarVisible"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	NetworkSpeed    string       `json:"networkSpeed,omitempty"`
	UserProfile     *UserProfile `json:"userProfile,omitempty"`
}
