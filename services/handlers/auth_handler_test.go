package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/shared"
)

type fakeAuthService struct {
	signUpCalls int
}

func (f *fakeAuthService) SignUp(req dto.SignUpRequest) (*dto.AuthResponse, error) {
	f.signUpCalls++
	return &dto.AuthResponse{Token: "jwt-demo"}, nil
}

func (f *fakeAuthService) SignIn(req dto.SignInRequest) (*dto.AuthResponse, error) {
	return &dto.AuthResponse{Token: "jwt-demo"}, nil
}

func (f *fakeAuthService) Session(userID string) (*dto.SessionResponse, error) {
	return &dto.SessionResponse{UserID: userID}, nil
}

func newHandlerApp(method, path string, handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := shared.GetAppError(err); ok {
				return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
			}
			return shared.ResponseError(c, http.StatusInternalServerError, err.Error())
		},
	})
	app.Add(method, path, handler)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, shared.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var envelope shared.Response
	if err := shared.JSONUnmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope %q: %v", raw, err)
	}
	return resp, envelope
}

func TestSignUpValidationFailureReturnsFieldErrors(t *testing.T) {
	authSvc := &fakeAuthService{}
	app := newHandlerApp(http.MethodPost, "/signup", NewAuthHandler(authSvc).SignUp)

	resp, envelope := postJSON(t, app, "/signup",
		`{"email":"not-an-email","password":"x","nickname":"F"}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Success {
		t.Fatal("envelope must report failure")
	}
	if envelope.Message != "Validation failed" {
		t.Fatalf("message = %q", envelope.Message)
	}

	fields, ok := envelope.Data.([]interface{})
	if !ok || len(fields) == 0 {
		t.Fatalf("expected per-field errors in data, got %T %v", envelope.Data, envelope.Data)
	}
	first, ok := fields[0].(map[string]interface{})
	if !ok {
		t.Fatalf("field error shape wrong: %v", fields[0])
	}
	if field, _ := first["field"].(string); field == "" {
		t.Fatalf("missing field name: %v", first)
	}
	if message, _ := first["message"].(string); message == "" {
		t.Fatalf("missing message: %v", first)
	}

	if authSvc.signUpCalls != 0 {
		t.Fatal("invalid request must not reach the service")
	}
}

func TestSignUpValidRequestReachesService(t *testing.T) {
	authSvc := &fakeAuthService{}
	app := newHandlerApp(http.MethodPost, "/signup", NewAuthHandler(authSvc).SignUp)

	resp, envelope := postJSON(t, app, "/signup",
		`{"email":"fatou@tutoo.mr","password":"secret1","nickname":"Fatou","userType":"student"}`)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if !envelope.Success {
		t.Fatalf("envelope failure: %+v", envelope)
	}
	if authSvc.signUpCalls != 1 {
		t.Fatalf("signUpCalls = %d, want 1", authSvc.signUpCalls)
	}
}
