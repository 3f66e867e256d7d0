package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/services/handlers"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// HttpService serves the backend contract the app speaks: auth, profiles,
// progress, sync, courses, analytics and the assistant, all under /api/v1
// with the uniform response envelope.
type HttpService struct {
	context.DefaultService

	jwtSvc       *JWTService
	authSvc      *AuthService
	learningSvc  *LearningService
	rateLimitSvc *RateLimitService

	// Auth guard injected by the runtime so the middleware package keeps
	// ownership of token checks without an import cycle.
	authGuard fiber.Handler

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) SetAuthGuard(guard fiber.Handler) {
	svc.authGuard = guard
}

func (svc *HttpService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.learningSvc = svc.Service(LEARNING_SVC).(*LearningService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)

	if svc.authGuard == nil {
		svc.authGuard = svc.requiredAuth()
	}

	svc.app = fiber.New(fiber.Config{
		AppName:      "tutoo-api",
		ErrorHandler: svc.handleError,
		JSONEncoder:  shared.JSONMarshal,
		JSONDecoder:  shared.JSONUnmarshal,
	})

	svc.app.Use(recover.New())
	svc.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	svc.registerRoutes()

	log.WithField("port", svc.port).Info("HTTP server listening")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

func (svc *HttpService) registerRoutes() {
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	userHandler := handlers.NewUserHandler(svc.learningSvc)
	contentHandler := handlers.NewContentHandler(svc.learningSvc)
	syncHandler := handlers.NewSyncHandler(svc.learningSvc)
	aiHandler := handlers.NewAIHandler(svc.learningSvc)

	v1 := svc.app.Group("/api/v1")
	v1.Use(svc.rateLimitSvc.IPRateLimit())

	v1.Get("/health", svc.health)

	auth := v1.Group("/auth")
	auth.Post("/signup", svc.rateLimitSvc.RateLimit("signup"), authHandler.SignUp)
	auth.Post("/signin", svc.rateLimitSvc.RateLimit("signin"), authHandler.SignIn)
	auth.Post("/signout", svc.authGuard, authHandler.SignOut)
	auth.Get("/session", svc.authGuard, authHandler.Session)

	users := v1.Group("/users/:userId", svc.authGuard)
	users.Get("/profile", userHandler.GetProfile)
	users.Patch("/profile", userHandler.UpdateProfile)
	users.Get("/progress", userHandler.GetProgress)
	users.Get("/analytics", userHandler.Analytics)
	users.Post("/badges/:badgeId/claim", userHandler.ClaimBadge)

	v1.Get("/courses", contentHandler.GetCourses)
	v1.Post("/courses", svc.authGuard, contentHandler.CreateCourse)

	v1.Post("/progress", svc.authGuard, svc.rateLimitSvc.UserBasedRateLimit("progress"), syncHandler.SubmitProgress)
	v1.Post("/sync", svc.authGuard, syncHandler.Sync)

	v1.Post("/ai/chat", svc.authGuard, svc.rateLimitSvc.UserBasedRateLimit("ai_chat"), aiHandler.Chat)
}

// @Summary Health check
// @Description Liveness probe; also used by clients to measure link speed
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=dto.HealthResponse}
// @Router /api/v1/health [get]
func (svc *HttpService) health(c *fiber.Ctx) error {
	c.Set("Cache-Control", "no-store")
	return shared.ResponseJSON(c, http.StatusOK, "Success", dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// requiredAuth is the fallback token check when no guard was injected,
// used by tests that spin the service up without the runtime.
func (svc *HttpService) requiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil || userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseError(c, fiberErr.Code, fiberErr.Message)
	}

	log.WithError(err).Error("Unhandled request error")
	return shared.ResponseError(c, http.StatusInternalServerError, "Internal server error")
}

// App exposes the router for in-process tests.
func (svc *HttpService) App() *fiber.App {
	return svc.app
}
