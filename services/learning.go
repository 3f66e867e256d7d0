package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/gamification"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// LearningService is the dev backend's domain core: progress ingestion,
// course catalog, analytics and the assistant. XP application runs here,
// through the same engine the app uses, so client and server can never
// disagree on the curve.
type LearningService struct {
	context.DefaultService

	sqlSvc  *SqliteService
	authSvc *AuthService
}

const LEARNING_SVC = "learning_svc"

func (svc LearningService) Id() string {
	return LEARNING_SVC
}

func (svc *LearningService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	return nil
}

// ==================== PROGRESS ====================

// SubmitProgress ingests one event. Replays of an already-seen event id
// return the current profile without applying XP twice.
func (svc *LearningService) SubmitProgress(userID string, req dto.ProgressRequest) (*dto.ProgressResponse, error) {
	update := req.ToUpdate(time.Now())

	inserted, err := svc.ingestEvent(userID, update)
	if err != nil {
		return nil, err
	}

	if inserted {
		if err := svc.applyProgress(userID, update); err != nil {
			return nil, err
		}
	}

	profile, err := svc.authSvc.LoadProfile(userID)
	if err != nil {
		return nil, err
	}

	return &dto.ProgressResponse{Event: update, Profile: profile}, nil
}

// Sync ingests a batch under at-least-once delivery. Duplicates are
// counted, not rejected; partial persistence failure aborts so the client
// retries the whole batch.
func (svc *LearningService) Sync(userID string, req dto.SyncRequest) (*dto.SyncResponse, error) {
	resp := dto.SyncResponse{}
	for _, update := range req.Updates {
		inserted, err := svc.ingestEvent(userID, update)
		if err != nil {
			return nil, err
		}
		if !inserted {
			resp.Duplicates++
			continue
		}
		if err := svc.applyProgress(userID, update); err != nil {
			return nil, err
		}
		resp.Synced++
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"synced":     resp.Synced,
		"duplicates": resp.Duplicates,
	}).Info("Progress batch ingested")
	return &resp, nil
}

func (svc *LearningService) ingestEvent(userID string, update model.ProgressUpdate) (bool, error) {
	if update.EventID == "" {
		return false, shared.NewBadRequestError(nil, "Missing event id")
	}

	timestamp := update.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	inserted, err := svc.sqlSvc.InsertProgressEntry(&model.ProgressEntry{
		EventID:   update.EventID,
		UserID:    userID,
		LessonID:  update.LessonID,
		Completed: update.Completed,
		Stars:     update.Stars,
		TimeSpent: update.TimeSpent,
		XPEarned:  update.XPEarned,
		Timestamp: timestamp,
	})
	if err != nil {
		return false, svc.sqlSvc.HandleError(err)
	}
	return inserted, nil
}

// applyProgress runs the gamification transition for a newly seen event:
// streak, XP, badges.
func (svc *LearningService) applyProgress(userID string, update model.ProgressUpdate) error {
	profile, err := svc.authSvc.LoadProfile(userID)
	if err != nil {
		return err
	}

	now := time.Now()
	*profile = gamification.UpdateStreak(*profile, now)

	updated, err := gamification.AwardXP(*profile, update.XPEarned)
	if err != nil {
		return shared.NewBadRequestError(err, "Invalid XP amount")
	}

	newBadges := gamification.CheckBadgeEligibility(&updated, now)
	updated.MergeBadges(newBadges)
	updated.UpdatedAt = now

	return svc.authSvc.storeProfile(userID, &updated)
}

func (svc *LearningService) GetProgress(userID string) ([]model.ProgressUpdate, error) {
	entries, err := svc.sqlSvc.ProgressByUser(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	updates := make([]model.ProgressUpdate, 0, len(entries))
	for i := range entries {
		updates = append(updates, entries[i].ToUpdate())
	}
	return updates, nil
}

// ==================== PROFILE ====================

func (svc *LearningService) GetProfile(userID string) (*model.UserProfile, error) {
	return svc.authSvc.LoadProfile(userID)
}

// UpdateProfile applies a shallow merge of the provided fields. Level and
// XP fields are silently ignored; they only move through progress events.
func (svc *LearningService) UpdateProfile(userID string, patch map[string]interface{}) (*model.UserProfile, error) {
	profile, err := svc.authSvc.LoadProfile(userID)
	if err != nil {
		return nil, err
	}

	for key, value := range patch {
		switch key {
		case "nickname":
			if v, ok := value.(string); ok && v != "" {
				profile.Nickname = v
			}
		case "avatar":
			if v, ok := value.(string); ok && v != "" {
				profile.Avatar = v
			}
		case "userType":
			if v, ok := value.(string); ok && v != "" {
				profile.UserType = v
			}
		}
	}
	profile.UpdatedAt = time.Now()

	if err := svc.authSvc.storeProfile(userID, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ClaimBadge marks an eligible badge earned. Claiming an already-earned
// badge is a conflict, not a repeat award.
func (svc *LearningService) ClaimBadge(userID, badgeID string) (*model.Badge, error) {
	profile, err := svc.authSvc.LoadProfile(userID)
	if err != nil {
		return nil, err
	}

	if profile.EarnedBadgeIDs()[badgeID] {
		return nil, shared.NewConflictError(nil, "Badge déjà obtenu")
	}

	eligible := gamification.CheckBadgeEligibility(profile, time.Now())
	for _, badge := range eligible {
		if badge.ID == badgeID {
			profile.MergeBadges([]model.Badge{badge})
			profile.UpdatedAt = time.Now()
			if err := svc.authSvc.storeProfile(userID, profile); err != nil {
				return nil, err
			}
			return &badge, nil
		}
	}

	return nil, shared.NewBadRequestError(nil, "Conditions du badge non remplies")
}

// ==================== COURSES ====================

func (svc *LearningService) GetCourses(subject string) ([]model.Course, error) {
	records, err := svc.sqlSvc.CourseRecords(subject)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	courses := make([]model.Course, 0, len(records))
	for i := range records {
		var course model.Course
		if err := shared.JSONUnmarshal(records[i].Payload, &course); err != nil {
			log.WithError(err).WithField("course_id", records[i].ID).Warn("Skipping unreadable course record")
			continue
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func (svc *LearningService) CreateCourse(userID string, req dto.CreateCourseRequest) (*model.Course, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate course id")
	}

	course := model.Course{
		ID:            id.String(),
		Subject:       req.Subject,
		Title:         req.Title,
		Lessons:       req.Lessons,
		Unlocked:      req.Unlocked,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
		AgeGroup:      req.AgeGroup,
		CreatedBy:     userID,
	}
	if course.Lessons == nil {
		course.Lessons = []model.Lesson{}
	}

	payload, err := shared.JSONMarshal(&course)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode course")
	}

	if err := svc.sqlSvc.CreateCourseRecord(&model.CourseRecord{
		ID:        course.ID,
		Subject:   course.Subject,
		CreatedBy: userID,
		Payload:   payload,
	}); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	return &course, nil
}

// ==================== ANALYTICS ====================

func (svc *LearningService) Analytics(userID, timeframe string) (*dto.AnalyticsResponse, error) {
	end := time.Now()
	var start time.Time
	switch timeframe {
	case "month":
		start = end.AddDate(0, -1, 0)
	case "year":
		start = end.AddDate(-1, 0, 0)
	default:
		timeframe = "week"
		start = end.AddDate(0, 0, -7)
	}

	entries, err := svc.sqlSvc.ProgressSince(userID, start)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resp := dto.AnalyticsResponse{
		Timeframe: timeframe,
		StartDate: start,
		EndDate:   end,
	}

	starSum := 0
	for i := range entries {
		if entries[i].Completed {
			resp.TotalLessons++
		}
		resp.TotalXP += entries[i].XPEarned
		resp.TotalTimeSpent += entries[i].TimeSpent
		starSum += entries[i].Stars
	}
	if len(entries) > 0 {
		resp.AverageStars = float64(starSum) / float64(len(entries))
	}

	return &resp, nil
}

// ==================== AI ASSISTANT ====================

// AIChat answers from a canned bilingual knowledge base keyed on subject
// words in the query. Every exchange is logged for curriculum review.
func (svc *LearningService) AIChat(userID string, req dto.AIChatRequest) (*dto.AIChatResponse, error) {
	language := req.Language
	if language == "" {
		language = shared.LanguageFrench
	}

	resp := assistantAnswer(req.Query, req.Context, language)

	contextPayload, err := shared.JSONMarshal(req.Context)
	if err != nil {
		contextPayload = []byte("{}")
	}

	id, err := uuid.NewV7()
	if err == nil {
		if err := svc.sqlSvc.SaveConversation(&model.Conversation{
			ID:       id.String(),
			UserID:   userID,
			Query:    req.Query,
			Response: resp.Response,
			Context:  string(contextPayload),
			Language: language,
		}); err != nil {
			log.WithError(err).Warn("Failed to log assistant exchange")
		}
	}

	return resp, nil
}

func assistantAnswer(query string, aiCtx dto.AIContext, language string) *dto.AIChatResponse {
	lower := strings.ToLower(query)

	topic := "general"
	switch {
	case strings.Contains(lower, "math") || strings.Contains(lower, "calcul") || strings.Contains(lower, "رياضيات") || strings.Contains(lower, "حساب"):
		topic = "math"
	case strings.Contains(lower, "français") || strings.Contains(lower, "francais") || strings.Contains(lower, "grammaire") || strings.Contains(lower, "فرنسية"):
		topic = "french"
	case strings.Contains(lower, "science") || strings.Contains(lower, "علوم"):
		topic = "science"
	case strings.Contains(lower, "histoire") || strings.Contains(lower, "تاريخ"):
		topic = "history"
	case strings.Contains(lower, "géographie") || strings.Contains(lower, "geographie") || strings.Contains(lower, "جغرافيا"):
		topic = "geography"
	}

	answers := assistantAnswersFR
	suggestions := assistantSuggestionsFR
	if language == shared.LanguageArabic {
		answers = assistantAnswersAR
		suggestions = assistantSuggestionsAR
	}

	answer := answers[topic]
	if aiCtx.CurrentLesson != "" {
		if language == shared.LanguageArabic {
			answer = fmt.Sprintf("%s (بخصوص درسك الحالي: %s)", answer, aiCtx.CurrentLesson)
		} else {
			answer = fmt.Sprintf("%s (à propos de ta leçon en cours : %s)", answer, aiCtx.CurrentLesson)
		}
	}

	return &dto.AIChatResponse{
		Response:    answer,
		Suggestions: suggestions[topic],
	}
}

var assistantAnswersFR = map[string]string{
	"math":      "Bonne question ! En mathématiques, commence toujours par relire l'énoncé et identifier ce qu'on te demande. Décompose le problème en petites étapes, et vérifie ton résultat à la fin. 🦉",
	"french":    "Le français demande de la pratique ! Relis la règle de grammaire, puis cherche trois exemples dans la leçon. Écrire tes propres phrases est le meilleur moyen de retenir. 🦉",
	"science":   "En sciences, observe d'abord, puis pose-toi la question « pourquoi ? ». Les expériences de la leçon montrent chaque étape, reprends-les une par une. 🦉",
	"history":   "L'histoire raconte des histoires vraies ! Place les événements sur une ligne du temps, cela aide beaucoup à comprendre l'ordre et les causes. 🦉",
	"geography": "Pour la géographie, garde une carte sous les yeux. Repère d'abord la Mauritanie, puis situe les lieux de la leçon autour. 🦉",
	"general":   "Je suis là pour t'aider ! Dis-moi sur quelle matière tu travailles, ou pose-moi une question sur ta leçon en cours. 🦉",
}

var assistantAnswersAR = map[string]string{
	"math":      "سؤال رائع! في الرياضيات، ابدأ دائماً بقراءة المسألة جيداً وحدد المطلوب. قسّم المسألة إلى خطوات صغيرة وتحقق من النتيجة في النهاية. 🦉",
	"french":    "اللغة الفرنسية تحتاج إلى ممارسة! راجع قاعدة النحو ثم ابحث عن ثلاثة أمثلة في الدرس. كتابة جمل خاصة بك هي أفضل طريقة للحفظ. 🦉",
	"science":   "في العلوم، لاحظ أولاً ثم اسأل نفسك «لماذا؟». تجارب الدرس توضح كل خطوة، راجعها واحدة تلو الأخرى. 🦉",
	"history":   "التاريخ يحكي قصصاً حقيقية! ضع الأحداث على خط زمني، فهذا يساعد كثيراً على فهم الترتيب والأسباب. 🦉",
	"geography": "في الجغرافيا، احتفظ بخريطة أمامك. حدد موريتانيا أولاً ثم حدد أماكن الدرس حولها. 🦉",
	"general":   "أنا هنا لمساعدتك! أخبرني عن المادة التي تدرسها، أو اسألني عن درسك الحالي. 🦉",
}

var assistantSuggestionsFR = map[string][]string{
	"math":      {"Montre-moi un exemple", "Comment vérifier mon résultat ?", "Donne-moi un exercice"},
	"french":    {"Explique la règle autrement", "Donne-moi trois exemples", "Fais-moi une dictée courte"},
	"science":   {"Explique l'expérience", "Pourquoi ça marche ?", "Donne-moi un quiz"},
	"history":   {"Raconte la suite", "Fais une ligne du temps", "Pose-moi une question"},
	"geography": {"Montre sur la carte", "Parle-moi de la Mauritanie", "Donne-moi un quiz"},
	"general":   {"Aide-moi en maths", "Aide-moi en français", "Recommande-moi une leçon"},
}

var assistantSuggestionsAR = map[string][]string{
	"math":      {"أرني مثالاً", "كيف أتحقق من نتيجتي؟", "أعطني تمريناً"},
	"french":    {"اشرح القاعدة بطريقة أخرى", "أعطني ثلاثة أمثلة", "أعطني إملاءً قصيراً"},
	"science":   {"اشرح التجربة", "لماذا يعمل هذا؟", "أعطني اختباراً"},
	"history":   {"أكمل القصة", "اصنع خطاً زمنياً", "اطرح علي سؤالاً"},
	"geography": {"أرني على الخريطة", "حدثني عن موريتانيا", "أعطني اختباراً"},
	"general":   {"ساعدني في الرياضيات", "ساعدني في الفرنسية", "اقترح علي درساً"},
}
