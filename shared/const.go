package shared

const (
	UserID = "user_id"

	LanguageFrench = "fr"
	LanguageArabic = "ar"

	UserTypeStudent = "student"
	UserTypeTeacher = "teacher"
	UserTypeParent  = "parent"

	AvatarFootball = "football"
	AvatarWizard   = "wizard"
	AvatarDragon   = "dragon"
	AvatarSpace    = "space"

	LessonTypeVideo       = "video"
	LessonTypeQuiz        = "quiz"
	LessonTypeExercise    = "exercise"
	LessonTypeInteractive = "interactive"

	BadgeCategoryProgress = "progress"
	BadgeCategoryStreak   = "streak"
	BadgeCategoryMastery  = "mastery"
	BadgeCategorySpecial  = "special"

	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Screens form an unconstrained navigation graph, any screen may request any other.
const (
	ScreenSplash       = "splash"
	ScreenOnboarding   = "onboarding"
	ScreenLogin        = "login"
	ScreenDashboard    = "dashboard"
	ScreenLesson       = "lesson"
	ScreenUpload       = "upload"
	ScreenParent       = "parent"
	ScreenProfile      = "profile"
	ScreenProgress     = "progress"
	ScreenAchievements = "achievements"
	ScreenSettings     = "settings"
)

// Gamification constants. These mirror the values baked into already-shipped
// clients, changing them invalidates earned progress.
const (
	BaseLevelXP     = 200
	LevelXPStep     = 50
	InitialXPToNext = BaseLevelXP

	WeeklyLessonsTarget = 15
	WeeklyXPTarget      = 1000

	ImprovementScoreThreshold = 70

	BadgeFirstLesson = "first-lesson"
	BadgeStreak3     = "streak-3"
	BadgeStreak7     = "streak-7"
	BadgeStreak30    = "streak-30"
	BadgeLevel5      = "level-5"
	BadgeLevel10     = "level-10"
	BadgeXP1000      = "xp-1000"
)

// Offline storage limits for low-end devices with little free space.
const (
	MaxOfflineCourses     = 10
	OfflineQuotaBytes     = 5 * 1024 * 1024
	OfflineRetentionDays  = 7
)

const (
	NetworkSpeedSlow   = "slow"
	NetworkSpeedNormal = "normal"
	NetworkSpeedFast   = "fast"
)

// Local durable storage keys, opaque to the backend.
const (
	SettingAuthToken = "auth_token"
	SettingProfile   = "user_profile"
	SettingLanguage  = "language"
	SettingLastSync  = "last_sync"
)
