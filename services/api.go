package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// ApiClientService wraps the backend contract. Every call attaches the
// stored bearer credential, applies the fixed timeout and folds all
// failures into the shared taxonomy; nothing thrown by the transport
// crosses this boundary.
type ApiClientService struct {
	appContext.DefaultService

	sqlSvc     *SqliteService
	connSvc    *ConnectivityService
	offlineSvc *OfflineService

	baseURL string
	timeout time.Duration
	client  *http.Client
}

const API_CLIENT_SVC = "api_client_svc"

// RequestTimeout matches the budget for degraded Mauritanian links.
const RequestTimeout = 10 * time.Second

func (svc ApiClientService) Id() string {
	return API_CLIENT_SVC
}

func (svc *ApiClientService) Configure(ctx *appContext.Context) error {
	svc.baseURL = os.Getenv("TUTOO_API_BASE")
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:8000/api/v1"
	}

	svc.timeout = RequestTimeout
	svc.client = &http.Client{}

	return svc.DefaultService.Configure(ctx)
}

func (svc *ApiClientService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.connSvc = svc.Service(CONNECTIVITY_SVC).(*ConnectivityService)
	svc.offlineSvc = svc.Service(OFFLINE_SVC).(*OfflineService)
	return nil
}

// SetBaseURL repoints the client. Used by tests against httptest servers.
func (svc *ApiClientService) SetBaseURL(base string) {
	svc.baseURL = base
}

// ==================== TRANSPORT ====================

func (svc *ApiClientService) makeRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if svc.connSvc != nil && !svc.connSvc.IsOnline() {
		return shared.ErrOffline
	}

	var reader io.Reader
	if body != nil {
		payload, err := shared.JSONMarshal(body)
		if err != nil {
			return shared.NewInternalError(err, "Failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, svc.baseURL+path, reader)
	if err != nil {
		return shared.NewInternalError(err, "Failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	if token, err := svc.sqlSvc.GetSetting(shared.SettingAuthToken); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := svc.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return shared.ErrTimeout
		}
		// Transport-level failure: treat as connectivity loss so the next
		// caller short-circuits instead of waiting out another timeout.
		if svc.connSvc != nil {
			svc.connSvc.SetOnline(false)
		}
		return shared.ErrOffline
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewInternalError(err, "Failed to read response")
	}

	var envelope dto.Envelope
	if err := shared.JSONUnmarshal(raw, &envelope); err != nil {
		return shared.NewInternalError(err, "Malformed server response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrAuthExpired
	}

	if !envelope.Success || resp.StatusCode >= 400 {
		message := envelope.Error
		if message == "" {
			message = envelope.Message
		}
		if message == "" {
			message = fmt.Sprintf("server error: %d", resp.StatusCode)
		}
		return &shared.AppError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := shared.JSONUnmarshal(envelope.Data, out); err != nil {
			return shared.NewInternalError(err, "Malformed server payload")
		}
	}

	return nil
}

// ==================== AUTH ====================

func (svc *ApiClientService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := svc.makeRequest(ctx, http.MethodPost, "/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (svc *ApiClientService) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := svc.makeRequest(ctx, http.MethodPost, "/auth/signin", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (svc *ApiClientService) SignOut(ctx context.Context) error {
	return svc.makeRequest(ctx, http.MethodPost, "/auth/signout", nil, nil)
}

func (svc *ApiClientService) CurrentSession(ctx context.Context) (*dto.SessionResponse, error) {
	var resp dto.SessionResponse
	if err := svc.makeRequest(ctx, http.MethodGet, "/auth/session", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ==================== PROFILE ====================

func (svc *ApiClientService) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	path := fmt.Sprintf("/users/%s/profile", url.PathEscape(userID))
	if err := svc.makeRequest(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (svc *ApiClientService) UpdateProfile(ctx context.Context, userID string, patch map[string]interface{}) (*model.UserProfile, error) {
	var profile model.UserProfile
	path := fmt.Sprintf("/users/%s/profile", url.PathEscape(userID))
	if err := svc.makeRequest(ctx, http.MethodPatch, path, patch, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ==================== PROGRESS ====================

// SubmitProgress sends one event, transparently redirecting it into the
// offline queue on offline, timeout or server fault. Progress is never
// lost and never surfaces a transport error to the user; queued reports
// whether the event went to the offline store instead of the server. Auth
// expiry is the one failure passed through, it needs re-authentication,
// not a retry.
func (svc *ApiClientService) SubmitProgress(ctx context.Context, update model.ProgressUpdate) (resp *dto.ProgressResponse, queued bool, err error) {
	var out dto.ProgressResponse
	err = svc.makeRequest(ctx, http.MethodPost, "/progress", update, &out)
	if err == nil {
		return &out, false, nil
	}

	if errors.Is(err, shared.ErrAuthExpired) {
		return nil, false, err
	}

	log.WithError(err).WithField("event_id", update.EventID).Info("Progress redirected to offline queue")
	if storeErr := svc.offlineSvc.StoreProgressOffline(update); storeErr != nil {
		return nil, false, storeErr
	}
	return nil, true, nil
}

func (svc *ApiClientService) GetProgress(ctx context.Context, userID string) ([]model.ProgressUpdate, error) {
	var updates []model.ProgressUpdate
	path := fmt.Sprintf("/users/%s/progress", url.PathEscape(userID))
	if err := svc.makeRequest(ctx, http.MethodGet, path, nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (svc *ApiClientService) SyncUpdates(ctx context.Context, updates []model.ProgressUpdate) (*dto.SyncResponse, error) {
	var resp dto.SyncResponse
	if err := svc.makeRequest(ctx, http.MethodPost, "/sync", dto.SyncRequest{Updates: updates}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ==================== COURSES ====================

func (svc *ApiClientService) GetCourses(ctx context.Context, subject string) ([]model.Course, error) {
	path := "/courses"
	if subject != "" {
		path += "?subject=" + url.QueryEscape(subject)
	}

	var courses []model.Course
	if err := svc.makeRequest(ctx, http.MethodGet, path, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (svc *ApiClientService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*model.Course, error) {
	var course model.Course
	if err := svc.makeRequest(ctx, http.MethodPost, "/courses", req, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ==================== AI ASSISTANT ====================

// AIChat queries the assistant. Offline, the owl still answers with a
// fixed apology in the requested language rather than failing the screen.
func (svc *ApiClientService) AIChat(ctx context.Context, req dto.AIChatRequest) (*dto.AIChatResponse, error) {
	var resp dto.AIChatResponse
	err := svc.makeRequest(ctx, http.MethodPost, "/ai/chat", req, &resp)
	if err == nil {
		return &resp, nil
	}

	if errors.Is(err, shared.ErrOffline) || errors.Is(err, shared.ErrTimeout) {
		return &dto.AIChatResponse{Response: offlineAssistantMessage(req.Language)}, nil
	}
	return nil, err
}

func offlineAssistantMessage(language string) string {
	if language == shared.LanguageArabic {
		return "عذراً، لا أستطيع الإجابة الآن لأنك غير متصل بالإنترنت. حاول إعادة الاتصال لاستخدام المساعد! 🦉"
	}
	return "Je suis désolé, je ne peux pas répondre en ce moment car tu es hors ligne. Essaie de te reconnecter à internet pour utiliser l'assistant IA! 🦉"
}

// ==================== ANALYTICS / BADGES / HEALTH ====================

func (svc *ApiClientService) GetAnalytics(ctx context.Context, userID, timeframe string) (*dto.AnalyticsResponse, error) {
	var resp dto.AnalyticsResponse
	path := fmt.Sprintf("/users/%s/analytics?timeframe=%s", url.PathEscape(userID), url.QueryEscape(timeframe))
	if err := svc.makeRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (svc *ApiClientService) ClaimBadge(ctx context.Context, userID, badgeID string) (*model.Badge, error) {
	var badge model.Badge
	path := fmt.Sprintf("/users/%s/badges/%s/claim", url.PathEscape(userID), url.PathEscape(badgeID))
	if err := svc.makeRequest(ctx, http.MethodPost, path, nil, &badge); err != nil {
		return nil, err
	}
	return &badge, nil
}

func (svc *ApiClientService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var resp dto.HealthResponse
	if err := svc.makeRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
