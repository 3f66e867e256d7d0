package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/gamification"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// StateService owns the whole application state. It is the only writer;
// every mutation happens under its lock and observers get value snapshots.
type StateService struct {
	appContext.DefaultService

	sqlSvc     *SqliteService
	connSvc    *ConnectivityService
	offlineSvc *OfflineService
	apiSvc     *ApiClientService

	backend AuthBackend

	mu    sync.Mutex
	state model.AppState

	authInFlight bool

	listeners []func(model.AppState)
}

const STATE_SVC = "state_svc"

func (svc StateService) Id() string {
	return STATE_SVC
}

func (svc *StateService) Configure(ctx *appContext.Context) error {
	svc.state = model.AppState{
		CurrentScreen: shared.ScreenSplash,
		Language:      shared.LanguageFrench,
		UserType:      shared.UserTypeStudent,
		NetworkSpeed:  shared.NetworkSpeedNormal,
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *StateService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.connSvc = svc.Service(CONNECTIVITY_SVC).(*ConnectivityService)
	svc.offlineSvc = svc.Service(OFFLINE_SVC).(*OfflineService)
	svc.apiSvc = svc.Service(API_CLIENT_SVC).(*ApiClientService)

	if svc.backend == nil {
		svc.backend = NewRemoteBackend(svc.apiSvc)
	}

	if language, err := svc.sqlSvc.GetSetting(shared.SettingLanguage); err == nil && language != "" {
		svc.mu.Lock()
		svc.state.Language = language
		svc.mu.Unlock()
	}

	// Connectivity transitions drive both the offline flag and a sync
	// attempt the moment the link returns.
	svc.connSvc.Subscribe(func(online bool) {
		svc.mu.Lock()
		svc.state.IsOffline = !online
		svc.state.NetworkSpeed = svc.connSvc.NetworkSpeed()
		snapshot := svc.snapshotLocked()
		svc.mu.Unlock()
		svc.notify(snapshot)

		if online {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
				defer cancel()
				if _, err := svc.SyncNow(ctx); err != nil {
					log.WithError(err).Warn("Background sync after reconnect failed")
				}
			}()
		}
	})

	return nil
}

// SetBackend swaps the account system before Start wires the default.
func (svc *StateService) SetBackend(backend AuthBackend) {
	svc.backend = backend
}

// ==================== OBSERVATION ====================

// Subscribe registers a listener called with a state snapshot after every
// mutation. Listeners run outside the lock and must not call back into
// mutating methods synchronously.
func (svc *StateService) Subscribe(fn func(model.AppState)) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.listeners = append(svc.listeners, fn)
}

func (svc *StateService) notify(snapshot model.AppState) {
	svc.mu.Lock()
	listeners := make([]func(model.AppState), len(svc.listeners))
	copy(listeners, svc.listeners)
	svc.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Snapshot returns a copy of the current state. The profile is cloned so
// readers can never mutate controller-owned memory.
func (svc *StateService) Snapshot() model.AppState {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.snapshotLocked()
}

func (svc *StateService) snapshotLocked() model.AppState {
	snapshot := svc.state
	if svc.state.UserProfile != nil {
		clone := *svc.state.UserProfile
		clone.Badges = append([]model.Badge{}, svc.state.UserProfile.Badges...)
		clone.UnlockedStickers = append([]string{}, svc.state.UserProfile.UnlockedStickers...)
		clone.WeeklyProgress = append([]model.WeeklyProgress{}, svc.state.UserProfile.WeeklyProgress...)
		clone.AreasToImprove = append([]model.ImprovementArea{}, svc.state.UserProfile.AreasToImprove...)
		snapshot.UserProfile = &clone
	}
	return snapshot
}

// ==================== NAVIGATION ====================

// ScreenPatch carries the selection that accompanies a navigation, such
// as the lesson being opened. Nil means plain navigation.
type ScreenPatch interface {
	apply(*model.AppState)
}

type SubjectPatch struct {
	Subject string
}

func (p SubjectPatch) apply(s *model.AppState) {
	s.SelectedSubject = p.Subject
}

type CoursePatch struct {
	Course *model.Course
}

func (p CoursePatch) apply(s *model.AppState) {
	s.SelectedCourse = p.Course
}

type LessonPatch struct {
	Course *model.Course
	Lesson *model.Lesson
}

func (p LessonPatch) apply(s *model.AppState) {
	if p.Course != nil {
		s.SelectedCourse = p.Course
	}
	s.SelectedLesson = p.Lesson
}

// Navigate moves to any screen; the graph is unconstrained. Leaving the
// lesson screen clears the lesson selection so a later return starts clean.
func (svc *StateService) Navigate(screen string, patch ScreenPatch) {
	svc.mu.Lock()
	if svc.state.CurrentScreen == shared.ScreenLesson && screen != shared.ScreenLesson {
		svc.state.SelectedLesson = nil
	}
	svc.state.CurrentScreen = screen
	if patch != nil {
		patch.apply(&svc.state)
	}
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()
	svc.notify(snapshot)
}

func (svc *StateService) ToggleSidebar() {
	svc.mu.Lock()
	svc.state.SidebarVisible = !svc.state.SidebarVisible
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()
	svc.notify(snapshot)
}

// SetLanguage switches fr/ar and persists the choice. Repeating the
// current language is a no-op that writes nothing.
func (svc *StateService) SetLanguage(language string) error {
	if language != shared.LanguageFrench && language != shared.LanguageArabic {
		return shared.NewBadRequestError(nil, "Unsupported language: "+language)
	}

	svc.mu.Lock()
	if svc.state.Language == language {
		svc.mu.Unlock()
		return nil
	}
	svc.state.Language = language
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()

	if err := svc.sqlSvc.SetSetting(shared.SettingLanguage, language); err != nil {
		log.WithError(err).Warn("Failed to persist language choice")
	}
	svc.notify(snapshot)
	return nil
}

// ==================== AUTH ====================

func (svc *StateService) beginAuth() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.authInFlight {
		return shared.ErrAuthInFlight
	}
	svc.authInFlight = true
	return nil
}

func (svc *StateService) endAuth() {
	svc.mu.Lock()
	svc.authInFlight = false
	svc.mu.Unlock()
}

func (svc *StateService) SignUp(ctx context.Context, req dto.SignUpRequest) error {
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, err.Error())
	}
	if err := svc.beginAuth(); err != nil {
		return err
	}
	defer svc.endAuth()

	resp, err := svc.backend.SignUp(ctx, req)
	if err != nil {
		return err
	}
	return svc.establishSession(resp.Token, resp.Profile)
}

func (svc *StateService) Login(ctx context.Context, email, password string) error {
	req := dto.SignInRequest{Email: strings.ToLower(email), Password: password}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, err.Error())
	}
	if err := svc.beginAuth(); err != nil {
		return err
	}
	defer svc.endAuth()

	resp, err := svc.backend.SignIn(ctx, req)
	if err != nil {
		return err
	}
	return svc.establishSession(resp.Token, resp.Profile)
}

// establishSession persists credential and profile, then flips the state
// to an authenticated dashboard in one transition.
func (svc *StateService) establishSession(token string, profile model.UserProfile) error {
	if err := svc.sqlSvc.SetSetting(shared.SettingAuthToken, token); err != nil {
		return err
	}
	if err := svc.persistProfile(&profile); err != nil {
		return err
	}

	svc.mu.Lock()
	svc.state.IsAuthenticated = true
	svc.state.UserProfile = &profile
	svc.state.UserType = profile.UserType
	svc.state.CurrentScreen = shared.ScreenDashboard
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()
	svc.notify(snapshot)
	return nil
}

// Logout is a hard reset: credentials and cached profile are removed and
// the state returns to the login screen. Language and the offline queue
// survive; pending progress still belongs to the user and syncs on the
// next session.
func (svc *StateService) Logout(ctx context.Context) error {
	if err := svc.backend.SignOut(ctx); err != nil {
		log.WithError(err).Warn("Remote sign-out failed, clearing local session anyway")
	}

	if err := svc.sqlSvc.DeleteSettings(shared.SettingAuthToken, shared.SettingProfile); err != nil {
		return err
	}

	svc.mu.Lock()
	language := svc.state.Language
	offline := svc.state.IsOffline
	speed := svc.state.NetworkSpeed
	svc.state = model.AppState{
		CurrentScreen: shared.ScreenLogin,
		Language:      language,
		UserType:      shared.UserTypeStudent,
		IsOffline:     offline,
		NetworkSpeed:  speed,
	}
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()
	svc.notify(snapshot)
	return nil
}

// ==================== BOOTSTRAP ====================

// Bootstrap restores the app on launch. A cached profile plus a stored
// credential authenticates immediately, no network round trip blocks the
// launch; the remote session check only runs when a token survived but
// the profile cache did not. A stale token resumed this way is caught by
// the first authenticated call returning ErrAuthExpired. Bootstrap never
// fails the launch.
func (svc *StateService) Bootstrap(ctx context.Context) {
	token, _ := svc.sqlSvc.GetSetting(shared.SettingAuthToken)
	raw, _ := svc.sqlSvc.GetSetting(shared.SettingProfile)

	if token == "" {
		svc.toLogin()
		return
	}

	if raw != "" {
		var cached model.UserProfile
		if err := shared.JSONUnmarshal([]byte(raw), &cached); err != nil {
			log.WithError(err).Warn("Cached profile unreadable, forcing fresh login")
			if err := svc.sqlSvc.DeleteSettings(shared.SettingAuthToken, shared.SettingProfile); err != nil {
				log.WithError(err).Warn("Failed to clear corrupt session")
			}
			svc.toLogin()
			return
		}
		svc.resume(&cached)
		return
	}

	session, err := svc.backend.CurrentSession(ctx)
	switch {
	case err == nil && session.Profile != nil:
		if err := svc.persistProfile(session.Profile); err != nil {
			log.WithError(err).Warn("Failed to cache restored profile")
		}
		svc.resume(session.Profile)

	case errors.Is(err, shared.ErrOffline) || errors.Is(err, shared.ErrTimeout):
		// Unreachable server and nothing cached: nothing to restore.
		svc.toLogin()

	default:
		if err := svc.sqlSvc.DeleteSettings(shared.SettingAuthToken, shared.SettingProfile); err != nil {
			log.WithError(err).Warn("Failed to clear rejected session")
		}
		svc.toLogin()
	}
}

func (svc *StateService) resume(profile *model.UserProfile) {
	svc.mu.Lock()
	svc.state.IsAuthenticated = true
	svc.state.UserProfile = profile
	svc.state.UserType = profile.UserType
	svc.state.CurrentScreen = shared.ScreenDashboard
	svc.state.IsOffline = !svc.connSvc.IsOnline()
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()
	svc.notify(snapshot)
}

func (svc *StateService) toLogin() {
	svc.mu.Lock()
	svc.state.IsAuthenticated = false
	svc.state.UserProfile = nil
	svc.state.CurrentScreen = shared.ScreenLogin
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()
	svc.notify(snapshot)
}

// ==================== PROFILE ====================

// ProfilePatch is a shallow merge: only non-nil fields are applied. Level
// and XP are deliberately absent; those move through AddXP only.
type ProfilePatch struct {
	Nickname       *string
	Avatar         *string
	UserType       *string
	AreasToImprove *[]model.ImprovementArea
}

func (svc *StateService) UpdateUserProfile(patch ProfilePatch) error {
	svc.mu.Lock()
	if svc.state.UserProfile == nil {
		svc.mu.Unlock()
		return shared.NewUnauthorizedError(nil, "No active profile")
	}

	p := svc.state.UserProfile
	if patch.Nickname != nil {
		p.Nickname = *patch.Nickname
	}
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	if patch.UserType != nil {
		p.UserType = *patch.UserType
		svc.state.UserType = *patch.UserType
	}
	if patch.AreasToImprove != nil {
		p.AreasToImprove = *patch.AreasToImprove
	}
	p.UpdatedAt = time.Now()

	persist := *p
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()

	if err := svc.persistProfile(&persist); err != nil {
		return err
	}
	svc.notify(snapshot)
	return nil
}

// AddXP applies the XP curve and closes the badge loop in one atomic
// state transition, then persists the new snapshot.
func (svc *StateService) AddXP(amount int) error {
	svc.mu.Lock()
	if svc.state.UserProfile == nil {
		svc.mu.Unlock()
		return shared.NewUnauthorizedError(nil, "No active profile")
	}

	updated, err := gamification.AwardXP(*svc.state.UserProfile, amount)
	if err != nil {
		svc.mu.Unlock()
		return err
	}

	newBadges := gamification.CheckBadgeEligibility(&updated, time.Now())
	updated.MergeBadges(newBadges)
	updated.UpdatedAt = time.Now()

	svc.state.UserProfile = &updated
	persist := updated
	snapshot := svc.snapshotLocked()
	svc.mu.Unlock()

	for _, b := range newBadges {
		log.WithField("badge", b.ID).Info("Badge earned")
	}

	if err := svc.persistProfile(&persist); err != nil {
		return err
	}
	svc.notify(snapshot)
	return nil
}

func (svc *StateService) persistProfile(p *model.UserProfile) error {
	payload, err := shared.JSONMarshal(p)
	if err != nil {
		return shared.NewInternalError(err, "Failed to encode profile")
	}
	return svc.sqlSvc.SetSetting(shared.SettingProfile, string(payload))
}

// ==================== LESSONS ====================

// CompleteLesson records a finished lesson end to end: a uniquely
// identified progress event submitted with offline fallback, the streak
// transition, today's weekly bucket, and the XP award with its badge
// checks. The profile mutation happens even when the event only reached
// the offline queue.
func (svc *StateService) CompleteLesson(ctx context.Context, lesson model.Lesson, stars, timeSpentSeconds int) error {
	svc.mu.Lock()
	if svc.state.UserProfile == nil {
		svc.mu.Unlock()
		return shared.NewUnauthorizedError(nil, "No active profile")
	}
	svc.mu.Unlock()

	eventID, err := uuid.NewV7()
	if err != nil {
		return shared.NewInternalError(err, "Failed to generate event id")
	}

	now := time.Now()
	update := model.ProgressUpdate{
		EventID:   eventID.String(),
		LessonID:  lesson.ID,
		Completed: true,
		Stars:     stars,
		TimeSpent: timeSpentSeconds,
		XPEarned:  lesson.XPReward,
		Timestamp: now,
	}

	_, queued, err := svc.apiSvc.SubmitProgress(ctx, update)
	if err != nil {
		return err
	}
	if queued {
		log.WithField("event_id", update.EventID).Info("Lesson completion stored for later sync")
	}

	svc.mu.Lock()
	p := svc.state.UserProfile
	if p == nil {
		// A logout can land while the submission is in flight. The event is
		// already durable, so only the local profile mutation is skipped.
		svc.mu.Unlock()
		return shared.NewUnauthorizedError(nil, "No active profile")
	}
	*p = gamification.UpdateStreak(*p, now)
	bumpWeeklyBucket(p, now, lesson.XPReward, timeSpentSeconds)
	svc.mu.Unlock()

	return svc.AddXP(lesson.XPReward)
}

// bumpWeeklyBucket credits today's entry in the 7-day activity window,
// creating it and trimming the window when the day rolled over.
func bumpWeeklyBucket(p *model.UserProfile, now time.Time, xp, timeSpentSeconds int) {
	today := now.Format("2006-01-02")
	for i := range p.WeeklyProgress {
		if p.WeeklyProgress[i].Date == today {
			p.WeeklyProgress[i].LessonsCompleted++
			p.WeeklyProgress[i].XPEarned += xp
			p.WeeklyProgress[i].TimeSpent += timeSpentSeconds / 60
			return
		}
	}

	p.WeeklyProgress = append(p.WeeklyProgress, model.WeeklyProgress{
		Date:             today,
		Day:              now.Format("Mon"),
		LessonsCompleted: 1,
		XPEarned:         xp,
		TimeSpent:        timeSpentSeconds / 60,
	})
	if len(p.WeeklyProgress) > 7 {
		p.WeeklyProgress = p.WeeklyProgress[len(p.WeeklyProgress)-7:]
	}
}

// ==================== SYNC ====================

// SyncNow drains the offline queue through the remote client. It returns
// whether the queue is now empty; failure leaves every pending event in
// place for the next attempt.
func (svc *StateService) SyncNow(ctx context.Context) (bool, error) {
	return svc.offlineSvc.SyncPendingData(ctx, svc.apiSvc)
}
