package services

import (
	"testing"
	"time"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

func newTestBackendServices(t *testing.T) (*AuthService, *LearningService) {
	t.Helper()
	sqlSvc := newTestSqlite(t)
	jwtSvc := &JWTService{AccessTokenDuration: 24 * time.Hour, jwtSecretKey: "test-secret"}
	authSvc := &AuthService{sqlSvc: sqlSvc, jwtSvc: jwtSvc}
	learningSvc := &LearningService{sqlSvc: sqlSvc, authSvc: authSvc}
	return authSvc, learningSvc
}

func signUpDemo(t *testing.T, authSvc *AuthService) *dto.AuthResponse {
	t.Helper()
	resp, err := authSvc.SignUp(dto.SignUpRequest{
		Email:    "Demo@Tutoo.MR",
		Password: "demo123",
		Nickname: "Démo",
		UserType: shared.UserTypeStudent,
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return resp
}

func appErrStatus(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.StatusCode
}

func TestSignUpCreatesFreshProfileAndSession(t *testing.T) {
	authSvc, _ := newTestBackendServices(t)

	resp := signUpDemo(t, authSvc)
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.User.Email != "demo@tutoo.mr" {
		t.Fatalf("email not lowercased: %q", resp.User.Email)
	}
	if resp.Profile.Level != 1 || resp.Profile.XP != 0 || resp.Profile.XPToNextLevel != shared.InitialXPToNext {
		t.Fatalf("fresh profile wrong: %+v", resp.Profile)
	}

	userID, err := authSvc.jwtSvc.VerifyJWTToken(resp.Token)
	if err != nil || userID != resp.User.ID {
		t.Fatalf("token does not resolve to the user: %q, %v", userID, err)
	}
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	authSvc, _ := newTestBackendServices(t)
	signUpDemo(t, authSvc)

	_, err := authSvc.SignUp(dto.SignUpRequest{
		Email: "demo@tutoo.mr", Password: "other12", Nickname: "Autre",
	})
	if status := appErrStatus(t, err); status != 409 {
		t.Fatalf("status = %d, want 409", status)
	}
}

func TestSignInWrongCredentialsSameMessage(t *testing.T) {
	authSvc, _ := newTestBackendServices(t)
	signUpDemo(t, authSvc)

	_, unknownErr := authSvc.SignIn(dto.SignInRequest{Email: "nobody@tutoo.mr", Password: "demo123"})
	_, badPassErr := authSvc.SignIn(dto.SignInRequest{Email: "demo@tutoo.mr", Password: "wrong"})

	if unknownErr == nil || badPassErr == nil {
		t.Fatal("both attempts must fail")
	}
	unknownApp, _ := shared.GetAppError(unknownErr)
	badPassApp, _ := shared.GetAppError(badPassErr)
	if unknownApp == nil || badPassApp == nil {
		t.Fatal("both failures must be app errors")
	}
	if unknownApp.StatusCode != 401 || badPassApp.StatusCode != 401 {
		t.Fatalf("both must be 401, got %d and %d", unknownApp.StatusCode, badPassApp.StatusCode)
	}
	if unknownApp.Message != badPassApp.Message {
		t.Fatal("unknown email and bad password must be indistinguishable")
	}

	resp, err := authSvc.SignIn(dto.SignInRequest{Email: "DEMO@tutoo.mr", Password: "demo123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if resp.Profile.ID == "" {
		t.Fatal("sign in must return the stored profile")
	}
}

func TestSessionReturnsResumePayload(t *testing.T) {
	authSvc, _ := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	session, err := authSvc.Session(signed.User.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.UserID != signed.User.ID || session.Profile == nil {
		t.Fatalf("session payload wrong: %+v", session)
	}

	if _, err := authSvc.Session("absent"); err == nil {
		t.Fatal("unknown user must not have a session")
	}
}

func TestSubmitProgressAppliesXPOnce(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	req := dto.ProgressRequest{
		EventID: "evt-1", LessonID: "lesson_math_add_1",
		Completed: true, Stars: 3, TimeSpent: 300, XPEarned: 50,
	}

	first, err := learningSvc.SubmitProgress(signed.User.ID, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Profile.TotalXP != 50 {
		t.Fatalf("totalXp = %d, want 50", first.Profile.TotalXP)
	}
	if first.Profile.Streak != 1 {
		t.Fatalf("streak = %d, want 1", first.Profile.Streak)
	}
	if !first.Profile.EarnedBadgeIDs()[shared.BadgeFirstLesson] {
		t.Fatal("first lesson badge expected")
	}

	// Replaying the same event id must not award XP again.
	replay, err := learningSvc.SubmitProgress(signed.User.ID, req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.Profile.TotalXP != 50 {
		t.Fatalf("replay changed totalXp to %d", replay.Profile.TotalXP)
	}

	if _, err := learningSvc.SubmitProgress(signed.User.ID, dto.ProgressRequest{LessonID: "x"}); err == nil {
		t.Fatal("missing event id must be rejected")
	}
}

func TestSyncCountsDuplicates(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	batch := dto.SyncRequest{Updates: []model.ProgressUpdate{
		{EventID: "evt-a", LessonID: "l1", Completed: true, XPEarned: 50},
		{EventID: "evt-b", LessonID: "l2", Completed: true, XPEarned: 75},
	}}

	resp, err := learningSvc.Sync(signed.User.ID, batch)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if resp.Synced != 2 || resp.Duplicates != 0 {
		t.Fatalf("first batch: %+v", resp)
	}

	// At-least-once delivery: the retried batch plus one new event.
	batch.Updates = append(batch.Updates, model.ProgressUpdate{EventID: "evt-c", LessonID: "l3", XPEarned: 25})
	resp, err = learningSvc.Sync(signed.User.ID, batch)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if resp.Synced != 1 || resp.Duplicates != 2 {
		t.Fatalf("retry batch: %+v", resp)
	}

	profile, err := learningSvc.GetProfile(signed.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.TotalXP != 150 {
		t.Fatalf("totalXp = %d, want 150", profile.TotalXP)
	}

	updates, err := learningSvc.GetProgress(signed.User.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("stored events = %d, want 3", len(updates))
	}
}

func TestUpdateProfileIgnoresXPFields(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	profile, err := learningSvc.UpdateProfile(signed.User.ID, map[string]interface{}{
		"nickname": "Fatou",
		"avatar":   shared.AvatarDragon,
		"xp":       9999,
		"level":    42,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Nickname != "Fatou" || profile.Avatar != shared.AvatarDragon {
		t.Fatalf("merge wrong: %+v", profile)
	}
	if profile.XP != 0 || profile.Level != 1 {
		t.Fatal("xp and level must only move through progress events")
	}
}

func TestClaimBadgeLifecycle(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	// Not eligible yet: no XP earned.
	_, err := learningSvc.ClaimBadge(signed.User.ID, shared.BadgeFirstLesson)
	if status := appErrStatus(t, err); status != 400 {
		t.Fatalf("ineligible claim status = %d, want 400", status)
	}

	if _, err := learningSvc.SubmitProgress(signed.User.ID, dto.ProgressRequest{
		EventID: "evt-1", LessonID: "l1", Completed: true, XPEarned: 50,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// SubmitProgress already awarded the badge, so a claim is a replay.
	_, err = learningSvc.ClaimBadge(signed.User.ID, shared.BadgeFirstLesson)
	if status := appErrStatus(t, err); status != 409 {
		t.Fatalf("replay claim status = %d, want 409", status)
	}
}

func TestCourseRoundTrip(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	created, err := learningSvc.CreateCourse(signed.User.ID, dto.CreateCourseRequest{
		Subject: "math",
		Title:   "Les Additions Magiques",
		Lessons: []model.Lesson{{ID: "l1", Title: "Compter jusqu'à 10", XPReward: 50}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedBy != signed.User.ID {
		t.Fatalf("course identity wrong: %+v", created)
	}

	if _, err := learningSvc.CreateCourse(signed.User.ID, dto.CreateCourseRequest{
		Subject: "science",
		Title:   "Le Voyage de l'Eau",
	}); err != nil {
		t.Fatalf("second create: %v", err)
	}

	math, err := learningSvc.GetCourses("math")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(math) != 1 || math[0].Title != "Les Additions Magiques" {
		t.Fatalf("subject filter wrong: %+v", math)
	}

	all, err := learningSvc.GetCourses("")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("courses = %d, want 2", len(all))
	}
}

func TestAnalyticsAggregatesWindow(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	events := []dto.ProgressRequest{
		{EventID: "evt-1", LessonID: "l1", Completed: true, Stars: 3, TimeSpent: 300, XPEarned: 50},
		{EventID: "evt-2", LessonID: "l2", Completed: true, Stars: 2, TimeSpent: 200, XPEarned: 75},
		{EventID: "evt-3", LessonID: "l3", Completed: false, Stars: 1, TimeSpent: 100, XPEarned: 0},
	}
	for _, event := range events {
		if _, err := learningSvc.SubmitProgress(signed.User.ID, event); err != nil {
			t.Fatalf("submit %s: %v", event.EventID, err)
		}
	}

	resp, err := learningSvc.Analytics(signed.User.ID, "week")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if resp.TotalLessons != 2 {
		t.Fatalf("totalLessons = %d, want 2 (incomplete events excluded)", resp.TotalLessons)
	}
	if resp.TotalXP != 125 || resp.TotalTimeSpent != 600 {
		t.Fatalf("totals wrong: %+v", resp)
	}
	if resp.AverageStars != 2.0 {
		t.Fatalf("averageStars = %v, want 2.0", resp.AverageStars)
	}

	// Unknown timeframe falls back to the weekly window.
	fallback, err := learningSvc.Analytics(signed.User.ID, "decade")
	if err != nil {
		t.Fatalf("fallback analytics: %v", err)
	}
	if fallback.Timeframe != "week" {
		t.Fatalf("timeframe = %q, want week", fallback.Timeframe)
	}
}

func TestAssistantAnswersPerTopicAndLanguage(t *testing.T) {
	authSvc, learningSvc := newTestBackendServices(t)
	signed := signUpDemo(t, authSvc)

	math, err := learningSvc.AIChat(signed.User.ID, dto.AIChatRequest{
		Query: "Comment faire ce calcul ?", Language: shared.LanguageFrench,
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	general, err := learningSvc.AIChat(signed.User.ID, dto.AIChatRequest{
		Query: "Bonjour", Language: shared.LanguageFrench,
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if math.Response == general.Response {
		t.Fatal("math question should get a topic answer")
	}
	if len(math.Suggestions) == 0 {
		t.Fatal("expected follow-up suggestions")
	}

	arabic, err := learningSvc.AIChat(signed.User.ID, dto.AIChatRequest{
		Query: "ساعدني في رياضيات", Language: shared.LanguageArabic,
	})
	if err != nil {
		t.Fatalf("chat ar: %v", err)
	}
	if arabic.Response == math.Response {
		t.Fatal("arabic answer must differ from french")
	}

	withLesson, err := learningSvc.AIChat(signed.User.ID, dto.AIChatRequest{
		Query: "Comment faire ce calcul ?", Language: shared.LanguageFrench,
		Context: dto.AIContext{CurrentLesson: "Les Additions Magiques"},
	})
	if err != nil {
		t.Fatalf("chat with context: %v", err)
	}
	if withLesson.Response == math.Response {
		t.Fatal("current lesson context should be reflected in the answer")
	}
}
