// Package gamification holds the pure progression rules: the XP curve,
// level-ups, badge eligibility, weekly goals and lesson recommendation.
// No I/O happens here. The dev backend uses this same package to validate
// client-reported levels, there is exactly one copy of the curve.
package gamification

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// ErrNegativeXP rejects negative awards outright. Clamping to zero would
// hide caller bugs.
var ErrNegativeXP = errors.New("xp award must be non-negative")

// XPForLevel returns the XP required to clear the given level. The curve is
// progressive and strictly increasing: 200, 450, 700, ...
func XPForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level*shared.BaseLevelXP + (level-1)*shared.LevelXPStep
}

// AwardXP adds amount to xp and totalXp, consuming full levels while enough
// XP remains. Multiple level-ups in one call are supported.
//
// Post-conditions: 0 <= xp < xpToNextLevel, level never decreases, totalXp
// grows by exactly amount.
func AwardXP(p model.UserProfile, amount int) (model.UserProfile, error) {
	if amount < 0 {
		return p, ErrNegativeXP
	}

	p.XP += amount
	p.TotalXP += amount
	p.XPToNextLevel = XPForLevel(p.Level)

	for p.XP >= p.XPToNextLevel {
		p.XP -= p.XPToNextLevel
		p.Level++
		p.XPToNextLevel = XPForLevel(p.Level)
	}

	p.UpdatedAt = time.Now()
	return p, nil
}

// CheckBadgeEligibility evaluates the fixed rule table against the profile
// and returns badges newly earned since the last merge. Already-earned ids
// never reappear; callers must merge the result into profile.Badges before
// the next call.
func CheckBadgeEligibility(p *model.UserProfile, now time.Time) []model.Badge {
	earned := p.EarnedBadgeIDs()
	var newBadges []model.Badge

	award := func(b model.Badge) {
		if earned[b.ID] {
			return
		}
		b.Earned = true
		earnedAt := now
		b.EarnedDate = &earnedAt
		newBadges = append(newBadges, b)
	}

	if p.TotalXP > 0 {
		award(model.Badge{
			ID:          shared.BadgeFirstLesson,
			Name:        "Premier Pas",
			Description: "Première leçon terminée!",
			Icon:        "🎯",
			Category:    shared.BadgeCategoryProgress,
			Rarity:      shared.RarityCommon,
		})
	}

	if p.Streak >= 3 {
		award(model.Badge{
			ID:          shared.BadgeStreak3,
			Name:        "Constance",
			Description: "3 jours consécutifs!",
			Icon:        "🔥",
			Category:    shared.BadgeCategoryStreak,
			Rarity:      shared.RarityCommon,
		})
	}
	if p.Streak >= 7 {
		award(model.Badge{
			ID:          shared.BadgeStreak7,
			Name:        "Régularité",
			Description: "7 jours d'apprentissage consécutifs",
			Icon:        "🔥",
			Category:    shared.BadgeCategoryStreak,
			Rarity:      shared.RarityRare,
		})
	}
	if p.Streak >= 30 {
		award(model.Badge{
			ID:          shared.BadgeStreak30,
			Name:        "Maître de la Discipline",
			Description: "30 jours consécutifs - Incroyable!",
			Icon:        "👑",
			Category:    shared.BadgeCategoryStreak,
			Rarity:      shared.RarityLegendary,
		})
	}

	if p.Level >= 5 {
		award(model.Badge{
			ID:          shared.BadgeLevel5,
			Name:        "Explorateur",
			Description: "Niveau 5 atteint!",
			Icon:        "🗺️",
			Category:    shared.BadgeCategoryProgress,
			Rarity:      shared.RarityCommon,
		})
	}
	if p.Level >= 10 {
		award(model.Badge{
			ID:          shared.BadgeLevel10,
			Name:        "Aventurier",
			Description: "Niveau 10 - Tu progresses bien!",
			Icon:        "⚔️",
			Category:    shared.BadgeCategoryProgress,
			Rarity:      shared.RarityRare,
		})
	}

	if p.TotalXP >= 1000 {
		award(model.Badge{
			ID:          shared.BadgeXP1000,
			Name:        "Collecteur d'XP",
			Description: "1000 XP collectés!",
			Icon:        "💎",
			Category:    shared.BadgeCategoryMastery,
			Rarity:      shared.RarityRare,
		})
	}

	return newBadges
}

type GoalProgress struct {
	Current    int     `json:"current"`
	Target     int     `json:"target"`
	Percentage float64 `json:"percentage"`
}

type WeeklyGoals struct {
	LessonsGoal GoalProgress `json:"lessonsGoal"`
	XPGoal      GoalProgress `json:"xpGoal"`
}

// CalculateWeeklyGoals sums the 7 daily buckets against the fixed weekly
// targets. Percentages are clamped to [0, 100].
func CalculateWeeklyGoals(weekly []model.WeeklyProgress) WeeklyGoals {
	var lessons, xp int
	for _, day := range weekly {
		lessons += day.LessonsCompleted
		xp += day.XPEarned
	}

	return WeeklyGoals{
		LessonsGoal: GoalProgress{
			Current:    lessons,
			Target:     shared.WeeklyLessonsTarget,
			Percentage: clampPercent(lessons, shared.WeeklyLessonsTarget),
		},
		XPGoal: GoalProgress{
			Current:    xp,
			Target:     shared.WeeklyXPTarget,
			Percentage: clampPercent(xp, shared.WeeklyXPTarget),
		},
	}
}

func clampPercent(current, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := float64(current) / float64(target) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// MotivationalMessage picks a message from the per-language pool. Selection
// is randomized; the result is never empty for a valid profile.
func MotivationalMessage(p *model.UserProfile, language string) string {
	earnedCount := len(p.EarnedBadgeIDs())
	remaining := p.XPToNextLevel - p.XP
	if remaining < 0 {
		remaining = 0
	}

	var pool []string
	switch language {
	case shared.LanguageArabic:
		pool = []string{
			fmt.Sprintf("أحسنت %s! أنت في المستوى %d! 🌟", p.Nickname, p.Level),
			fmt.Sprintf("%d أيام متتالية - استمر هكذا! 🔥", p.Streak),
			fmt.Sprintf("%d نقطة فقط للمستوى التالي! 💪", remaining),
			fmt.Sprintf("لقد حصلت على %d شارة! 🏆", earnedCount),
			"تقدمك رائع! استمر في التعلم! 📚",
		}
	default:
		pool = []string{
			fmt.Sprintf("Bravo %s! Tu es au niveau %d! 🌟", p.Nickname, p.Level),
			fmt.Sprintf("%d jours consécutifs - Continue comme ça! 🔥", p.Streak),
			fmt.Sprintf("Plus que %d XP pour le niveau suivant! 💪", remaining),
			fmt.Sprintf("Tu as déjà gagné %d badges! 🏆", earnedCount),
			"Tes progrès sont fantastiques! Continue à apprendre! 📚",
		}
	}

	return pool[rand.Intn(len(pool))]
}

// RecommendNextLesson prioritizes subjects where the user scores below the
// improvement threshold, weakest first, then falls back to the first
// incomplete lesson. Lessons with unmet prerequisites are never recommended.
func RecommendNextLesson(p *model.UserProfile, available []model.Lesson) *model.Lesson {
	completed := make(map[string]bool, len(available))
	for _, l := range available {
		if l.Completed {
			completed[l.ID] = true
		}
	}

	eligible := func(l model.Lesson) bool {
		if l.Completed {
			return false
		}
		for _, prereq := range l.Prerequisites {
			if !completed[prereq] {
				return false
			}
		}
		return true
	}

	weakAreas := make([]model.ImprovementArea, 0, len(p.AreasToImprove))
	for _, area := range p.AreasToImprove {
		if area.Score < shared.ImprovementScoreThreshold {
			weakAreas = append(weakAreas, area)
		}
	}
	sort.SliceStable(weakAreas, func(i, j int) bool {
		return weakAreas[i].Score < weakAreas[j].Score
	})

	for _, area := range weakAreas {
		for i := range available {
			if available[i].Subject == area.Subject && eligible(available[i]) {
				return &available[i]
			}
		}
	}

	for i := range available {
		if eligible(available[i]) {
			return &available[i]
		}
	}

	return nil
}

// UpdateStreak applies the daily-activity rule: same day is a no-op, the
// next day increments, any gap resets to one.
func UpdateStreak(p model.UserProfile, now time.Time) model.UserProfile {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if p.LastActivityDate == nil {
		p.Streak = 1
	} else {
		last := *p.LastActivityDate
		lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
		daysDiff := int(today.Sub(lastDay).Hours() / 24)

		switch daysDiff {
		case 0:
			// Same day, streak unchanged.
		case 1:
			p.Streak++
		default:
			p.Streak = 1
		}
	}

	activity := now
	p.LastActivityDate = &activity
	p.UpdatedAt = now
	return p
}

// NewProfile returns the canonical fresh profile handed out at signup.
func NewProfile(id, nickname, userType string, now time.Time) model.UserProfile {
	return model.UserProfile{
		ID:               id,
		Nickname:         nickname,
		UserType:         userType,
		Avatar:           shared.AvatarFootball,
		Level:            1,
		XP:               0,
		XPToNextLevel:    shared.InitialXPToNext,
		TotalXP:          0,
		Streak:           0,
		Badges:           []model.Badge{},
		UnlockedStickers: []string{},
		WeeklyProgress:   []model.WeeklyProgress{},
		AreasToImprove:   []model.ImprovementArea{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
