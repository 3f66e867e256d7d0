package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/gamification"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// AuthBackend is the seam between the state controller and whichever
// account system the deployment runs against. RemoteBackend talks to the
// real server; LocalOnlyBackend mints device-local sessions so the app
// remains usable with no server configured at all.
type AuthBackend interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*dto.SessionResponse, error)
}

// ==================== REMOTE ====================

type RemoteBackend struct {
	api *ApiClientService
}

func NewRemoteBackend(api *ApiClientService) *RemoteBackend {
	return &RemoteBackend{api: api}
}

func (b *RemoteBackend) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	return b.api.SignUp(ctx, req)
}

func (b *RemoteBackend) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error) {
	return b.api.SignIn(ctx, req)
}

func (b *RemoteBackend) SignOut(ctx context.Context) error {
	return b.api.SignOut(ctx)
}

func (b *RemoteBackend) CurrentSession(ctx context.Context) (*dto.SessionResponse, error) {
	return b.api.CurrentSession(ctx)
}

// ==================== LOCAL ONLY ====================

// LocalOnlyBackend keeps accounts on the device. Sessions are opaque
// local tokens, never sent anywhere; the stored profile is the single
// source of truth. Identifiers carry a local_ prefix so a later account
// migration can tell them apart from server-issued ones.
type LocalOnlyBackend struct {
	sqlSvc *SqliteService
}

func NewLocalOnlyBackend(sqlSvc *SqliteService) *LocalOnlyBackend {
	return &LocalOnlyBackend{sqlSvc: sqlSvc}
}

func (b *LocalOnlyBackend) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(err, err.Error())
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate identity")
	}

	userID := "local_" + id.String()
	profile := gamification.NewProfile(userID, req.Nickname, req.UserType, time.Now())

	return &dto.AuthResponse{
		Token: "local_session_" + id.String(),
		User: dto.UserInfo{
			ID:       userID,
			Email:    strings.ToLower(req.Email),
			Nickname: req.Nickname,
			UserType: req.UserType,
		},
		Profile: profile,
	}, nil
}

func (b *LocalOnlyBackend) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(err, err.Error())
	}

	raw, err := b.sqlSvc.GetSetting(shared.SettingProfile)
	if err != nil || raw == "" {
		return nil, shared.NewUnauthorizedError(nil, "Aucun compte local trouvé")
	}

	var profile model.UserProfile
	if err := shared.JSONUnmarshal([]byte(raw), &profile); err != nil {
		return nil, shared.NewInternalError(err, "Profil local illisible")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate session")
	}

	return &dto.AuthResponse{
		Token: "local_session_" + id.String(),
		User: dto.UserInfo{
			ID:       profile.ID,
			Email:    strings.ToLower(req.Email),
			Nickname: profile.Nickname,
			UserType: profile.UserType,
		},
		Profile: profile,
	}, nil
}

func (b *LocalOnlyBackend) SignOut(ctx context.Context) error {
	return nil
}

func (b *LocalOnlyBackend) CurrentSession(ctx context.Context) (*dto.SessionResponse, error) {
	token, err := b.sqlSvc.GetSetting(shared.SettingAuthToken)
	if err != nil || !strings.HasPrefix(token, "local_session_") {
		return nil, shared.ErrAuthExpired
	}

	raw, err := b.sqlSvc.GetSetting(shared.SettingProfile)
	if err != nil || raw == "" {
		return nil, shared.ErrAuthExpired
	}

	var profile model.UserProfile
	if err := shared.JSONUnmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("local session profile: %w", err)
	}

	return &dto.SessionResponse{
		UserID: profile.ID,
		User: dto.UserInfo{
			ID:       profile.ID,
			Nickname: profile.Nickname,
			UserType: profile.UserType,
		},
		Profile: &profile,
	}, nil
}
