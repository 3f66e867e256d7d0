package gamification

import (
	"errors"
	"testing"
	"time"

	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

func newTestProfile() model.UserProfile {
	return NewProfile("u-1", "Démo", shared.UserTypeStudent, time.Now())
}

func TestXPForLevelMonotonic(t *testing.T) {
	if got := XPForLevel(1); got != 200 {
		t.Fatalf("expected 200 XP for level 1, got %d", got)
	}
	if got := XPForLevel(2); got != 450 {
		t.Fatalf("expected 450 XP for level 2, got %d", got)
	}

	prev := 0
	for level := 1; level <= 50; level++ {
		cur := XPForLevel(level)
		if cur <= prev {
			t.Fatalf("curve not increasing at level %d: %d <= %d", level, cur, prev)
		}
		prev = cur
	}
}

func TestAwardXPInvariants(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		xp     int
		amount int
	}{
		{name: "no level up", level: 1, xp: 0, amount: 100},
		{name: "exact boundary", level: 1, xp: 0, amount: 200},
		{name: "mid level", level: 3, xp: 310, amount: 77},
		{name: "large award", level: 2, xp: 10, amount: 5000},
		{name: "zero award", level: 4, xp: 99, amount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProfile()
			p.Level = tt.level
			p.XP = tt.xp
			p.XPToNextLevel = XPForLevel(tt.level)
			p.TotalXP = 9999

			got, err := AwardXP(p, tt.amount)
			if err != nil {
				t.Fatalf("award xp: %v", err)
			}
			if got.XP < 0 || got.XP >= got.XPToNextLevel {
				t.Fatalf("xp %d outside [0, %d)", got.XP, got.XPToNextLevel)
			}
			if got.Level < p.Level {
				t.Fatalf("level decreased: %d -> %d", p.Level, got.Level)
			}
			if got.TotalXP != p.TotalXP+tt.amount {
				t.Fatalf("totalXp %d, want %d", got.TotalXP, p.TotalXP+tt.amount)
			}
			if got.XPToNextLevel != XPForLevel(got.Level) {
				t.Fatalf("xpToNextLevel %d inconsistent with level %d", got.XPToNextLevel, got.Level)
			}
		})
	}
}

func TestAwardXPMultiLevelJump(t *testing.T) {
	p := newTestProfile()
	p.Level = 1
	p.XP = 150
	p.XPToNextLevel = 200

	got, err := AwardXP(p, 1000)
	if err != nil {
		t.Fatalf("award xp: %v", err)
	}
	if got.Level <= 2 {
		t.Fatalf("expected level above 2 after 1000 XP, got %d", got.Level)
	}
	if got.TotalXP != 1000 {
		t.Fatalf("expected totalXp 1000, got %d", got.TotalXP)
	}
}

func TestAwardXPRejectsNegative(t *testing.T) {
	p := newTestProfile()
	if _, err := AwardXP(p, -10); !errors.Is(err, ErrNegativeXP) {
		t.Fatalf("expected ErrNegativeXP, got %v", err)
	}
}

func TestCheckBadgeEligibilityIdempotent(t *testing.T) {
	now := time.Now()
	p := newTestProfile()
	p.TotalXP = 100
	p.Streak = 7
	p.Level = 5

	first := CheckBadgeEligibility(&p, now)
	second := CheckBadgeEligibility(&p, now)
	if len(first) != len(second) {
		t.Fatalf("un-merged re-check changed result: %d vs %d", len(first), len(second))
	}

	wantIDs := map[string]bool{
		shared.BadgeFirstLesson: true,
		shared.BadgeStreak3:     true,
		shared.BadgeStreak7:     true,
		shared.BadgeLevel5:      true,
	}
	if len(first) != len(wantIDs) {
		t.Fatalf("expected %d badges, got %d", len(wantIDs), len(first))
	}
	for _, b := range first {
		if !wantIDs[b.ID] {
			t.Fatalf("unexpected badge %s", b.ID)
		}
		if !b.Earned || b.EarnedDate == nil {
			t.Fatalf("badge %s earned flag and date must be set together", b.ID)
		}
	}

	p.MergeBadges(first)
	after := CheckBadgeEligibility(&p, now)
	if len(after) != 0 {
		t.Fatalf("merged badges reappeared: %v", after)
	}
}

func TestCheckBadgeEligibilityFreshProfile(t *testing.T) {
	p := newTestProfile()
	if badges := CheckBadgeEligibility(&p, time.Now()); len(badges) != 0 {
		t.Fatalf("fresh profile earned %d badges", len(badges))
	}
}

func TestCalculateWeeklyGoalsClamp(t *testing.T) {
	week := make([]model.WeeklyProgress, 7)
	for i := range week {
		week[i] = model.WeeklyProgress{LessonsCompleted: 10, XPEarned: 500}
	}

	goals := CalculateWeeklyGoals(week)
	if goals.LessonsGoal.Percentage != 100 {
		t.Fatalf("lessons percentage %v, want exactly 100", goals.LessonsGoal.Percentage)
	}
	if goals.XPGoal.Percentage != 100 {
		t.Fatalf("xp percentage %v, want exactly 100", goals.XPGoal.Percentage)
	}
	if goals.LessonsGoal.Current != 70 || goals.XPGoal.Current != 3500 {
		t.Fatalf("totals wrong: %d lessons, %d xp", goals.LessonsGoal.Current, goals.XPGoal.Current)
	}
}

func TestCalculateWeeklyGoalsPartial(t *testing.T) {
	week := []model.WeeklyProgress{
		{LessonsCompleted: 3, XPEarned: 250},
	}
	goals := CalculateWeeklyGoals(week)
	if goals.LessonsGoal.Percentage != 20 {
		t.Fatalf("lessons percentage %v, want 20", goals.LessonsGoal.Percentage)
	}
	if goals.XPGoal.Percentage != 25 {
		t.Fatalf("xp percentage %v, want 25", goals.XPGoal.Percentage)
	}
}

func TestMotivationalMessageNeverEmpty(t *testing.T) {
	p := newTestProfile()
	for _, lang := range []string{shared.LanguageFrench, shared.LanguageArabic, "xx"} {
		for i := 0; i < 20; i++ {
			if msg := MotivationalMessage(&p, lang); msg == "" {
				t.Fatalf("empty message for language %q", lang)
			}
		}
	}
}

func TestRecommendNextLessonWeakestAreaFirst(t *testing.T) {
	p := newTestProfile()
	p.AreasToImprove = []model.ImprovementArea{
		{Subject: "math", Score: 65},
		{Subject: "french", Score: 40},
		{Subject: "science", Score: 90},
	}

	lessons := []model.Lesson{
		{ID: "m1", Subject: "math"},
		{ID: "f1", Subject: "french"},
		{ID: "s1", Subject: "science"},
	}

	got := RecommendNextLesson(&p, lessons)
	if got == nil || got.ID != "f1" {
		t.Fatalf("expected weakest subject lesson f1, got %+v", got)
	}
}

func TestRecommendNextLessonFallback(t *testing.T) {
	p := newTestProfile()
	lessons := []model.Lesson{
		{ID: "a", Completed: true},
		{ID: "b"},
		{ID: "c"},
	}
	got := RecommendNextLesson(&p, lessons)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected first incomplete lesson b, got %+v", got)
	}
}

func TestRecommendNextLessonHonorsPrerequisites(t *testing.T) {
	p := newTestProfile()
	lessons := []model.Lesson{
		{ID: "a"},
		{ID: "b", Prerequisites: []string{"a"}},
	}
	got := RecommendNextLesson(&p, lessons)
	if got == nil || got.ID != "a" {
		t.Fatalf("expected a before its dependent, got %+v", got)
	}

	lessons[0].Completed = true
	got = RecommendNextLesson(&p, lessons)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected b once prerequisite done, got %+v", got)
	}
}

func TestRecommendNextLessonNone(t *testing.T) {
	p := newTestProfile()
	lessons := []model.Lesson{{ID: "a", Completed: true}}
	if got := RecommendNextLesson(&p, lessons); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	p := newTestProfile()
	p = UpdateStreak(p, now)
	if p.Streak != 1 {
		t.Fatalf("first activity should start streak at 1, got %d", p.Streak)
	}

	sameDay := UpdateStreak(p, now.Add(2*time.Hour))
	if sameDay.Streak != 1 {
		t.Fatalf("same-day activity changed streak to %d", sameDay.Streak)
	}

	nextDay := UpdateStreak(p, now.Add(24*time.Hour))
	if nextDay.Streak != 2 {
		t.Fatalf("next-day activity should increment to 2, got %d", nextDay.Streak)
	}

	gap := UpdateStreak(p, now.Add(72*time.Hour))
	if gap.Streak != 1 {
		t.Fatalf("missed days should reset streak to 1, got %d", gap.Streak)
	}
}

func TestNewProfileDefaults(t *testing.T) {
	p := NewProfile("id", "Démo", shared.UserTypeStudent, time.Now())
	if p.Level != 1 || p.XP != 0 || p.XPToNextLevel != 200 || p.TotalXP != 0 {
		t.Fatalf("unexpected fresh profile: %+v", p)
	}
	if len(p.Badges) != 0 {
		t.Fatalf("fresh profile has badges: %v", p.Badges)
	}
}
