package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

func newTestAPI(t *testing.T, baseURL string) (*ApiClientService, *SqliteService, *ConnectivityService, *OfflineService) {
	t.Helper()
	sqlSvc := newTestSqlite(t)
	connSvc := &ConnectivityService{online: true, speed: shared.NetworkSpeedNormal}
	offSvc := &OfflineService{sqlSvc: sqlSvc, connSvc: connSvc}

	apiSvc := &ApiClientService{
		sqlSvc:     sqlSvc,
		connSvc:    connSvc,
		offlineSvc: offSvc,
		baseURL:    baseURL,
		timeout:    RequestTimeout,
		client:     &http.Client{},
	}
	return apiSvc, sqlSvc, connSvc, offSvc
}

func envelopeBody(data string) string {
	return `{"code":200,"success":true,"message":"ok","data":` + data + `}`
}

func TestMakeRequestOfflineShortCircuit(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	apiSvc, _, connSvc, _ := newTestAPI(t, server.URL)
	connSvc.online = false

	_, err := apiSvc.Health(context.Background())
	if !errors.Is(err, shared.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if hit {
		t.Fatal("offline request must not reach the server")
	}
}

func TestMakeRequestAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(envelopeBody(`{"status":"ok","timestamp":"2026-01-01T00:00:00Z"}`)))
	}))
	defer server.Close()

	apiSvc, sqlSvc, _, _ := newTestAPI(t, server.URL)
	if err := sqlSvc.SetSetting(shared.SettingAuthToken, "token-abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	if _, err := apiSvc.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if gotAuth != "Bearer token-abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestSignInDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(envelopeBody(`{
			"token": "jwt-123",
			"user": {"id":"u1","email":"demo@tutoo.mr","nickname":"Démo","userType":"student"},
			"profile": {"id":"u1","nickname":"Démo","userType":"student","level":1,"xp":0,"xpToNextLevel":200}
		}`)))
	}))
	defer server.Close()

	apiSvc, _, _, _ := newTestAPI(t, server.URL)

	resp, err := apiSvc.SignIn(context.Background(), dto.SignInRequest{Email: "demo@tutoo.mr", Password: "demo123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if resp.Token != "jwt-123" {
		t.Fatalf("token = %q", resp.Token)
	}
	if resp.User.ID != "u1" || resp.Profile.XPToNextLevel != 200 {
		t.Fatalf("payload not decoded: %+v", resp)
	}
}

func TestUnauthorizedMapsToAuthExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"success":false,"message":"Unauthorized"}`))
	}))
	defer server.Close()

	apiSvc, _, _, _ := newTestAPI(t, server.URL)

	_, err := apiSvc.CurrentSession(context.Background())
	if !errors.Is(err, shared.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestServerErrorSurfacesAppError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":409,"success":false,"message":"Un compte existe déjà avec cet email"}`))
	}))
	defer server.Close()

	apiSvc, _, _, _ := newTestAPI(t, server.URL)

	_, err := apiSvc.SignUp(context.Background(), dto.SignUpRequest{
		Email: "demo@tutoo.mr", Password: "demo123", Nickname: "Démo",
	})
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d", appErr.StatusCode)
	}
	if !strings.Contains(appErr.Message, "compte existe") {
		t.Fatalf("message = %q", appErr.Message)
	}
}

func TestSubmitProgressFallsBackToQueue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":500,"success":false,"message":"boom"}`))
	}))
	defer server.Close()

	apiSvc, _, _, offSvc := newTestAPI(t, server.URL)

	update := testUpdate("evt-fallback", time.Now())
	resp, queued, err := apiSvc.SubmitProgress(context.Background(), update)
	if err != nil {
		t.Fatalf("submit must not fail when the queue absorbs the event: %v", err)
	}
	if resp != nil {
		t.Fatal("no server response expected on fallback")
	}
	if !queued {
		t.Fatal("event should be queued on server fault")
	}

	pending, err := offSvc.PendingSync()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].EventID != "evt-fallback" {
		t.Fatalf("event missing from queue: %+v", pending)
	}
}

func TestSubmitProgressOfflineGoesToQueue(t *testing.T) {
	apiSvc, _, connSvc, offSvc := newTestAPI(t, "http://127.0.0.1:1")
	connSvc.online = false

	_, queued, err := apiSvc.SubmitProgress(context.Background(), testUpdate("evt-off", time.Now()))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !queued {
		t.Fatal("offline submission must queue")
	}

	pending, _ := offSvc.PendingSync()
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued event, got %d", len(pending))
	}
}

func TestSubmitProgressAuthExpiredPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"success":false,"message":"Unauthorized"}`))
	}))
	defer server.Close()

	apiSvc, _, _, offSvc := newTestAPI(t, server.URL)

	_, queued, err := apiSvc.SubmitProgress(context.Background(), testUpdate("evt-auth", time.Now()))
	if !errors.Is(err, shared.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if queued {
		t.Fatal("auth expiry must surface, not queue")
	}

	pending, _ := offSvc.PendingSync()
	if len(pending) != 0 {
		t.Fatalf("queue must stay empty on auth expiry, got %d", len(pending))
	}
}

func TestAIChatOfflineFallbackMessage(t *testing.T) {
	apiSvc, _, connSvc, _ := newTestAPI(t, "http://127.0.0.1:1")
	connSvc.online = false

	resp, err := apiSvc.AIChat(context.Background(), dto.AIChatRequest{Query: "Aide-moi", Language: shared.LanguageFrench})
	if err != nil {
		t.Fatalf("offline chat must not error: %v", err)
	}
	if !strings.Contains(resp.Response, "hors ligne") {
		t.Fatalf("expected offline apology, got %q", resp.Response)
	}

	arResp, err := apiSvc.AIChat(context.Background(), dto.AIChatRequest{Query: "ساعدني", Language: shared.LanguageArabic})
	if err != nil {
		t.Fatalf("offline chat (ar): %v", err)
	}
	if arResp.Response == resp.Response {
		t.Fatal("arabic fallback should differ from french")
	}
}

func TestGetCoursesFiltersBySubject(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(envelopeBody(`[{"id":"c1","subject":"math","title":"Les Additions Magiques","lessons":[],"totalProgress":0,"unlocked":true}]`)))
	}))
	defer server.Close()

	apiSvc, _, _, _ := newTestAPI(t, server.URL)

	courses, err := apiSvc.GetCourses(context.Background(), "math")
	if err != nil {
		t.Fatalf("get courses: %v", err)
	}
	if gotQuery != "subject=math" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(courses) != 1 || courses[0].ID != "c1" {
		t.Fatalf("courses = %+v", courses)
	}
}

func TestSyncUpdatesSendsBatch(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(envelopeBody(`{"synced":2,"duplicates":1}`)))
	}))
	defer server.Close()

	apiSvc, _, _, _ := newTestAPI(t, server.URL)

	resp, err := apiSvc.SyncUpdates(context.Background(), []model.ProgressUpdate{
		testUpdate("evt-1", time.Now()),
		testUpdate("evt-2", time.Now()),
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if gotPath != "/sync" {
		t.Fatalf("path = %q", gotPath)
	}
	if resp.Synced != 2 || resp.Duplicates != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}
