package services

import (
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tutoo-mr/tutoo_core/dto"
	"github.com/tutoo-mr/tutoo_core/gamification"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// AuthService implements the dev backend's account operations: bcrypt
// credentials, JWT sessions, and a fresh gamification profile on signup.
type AuthService struct {
	context.DefaultService

	sqlSvc *SqliteService
	jwtSvc *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	return nil
}

func (svc *AuthService) SignUp(req dto.SignUpRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(req.Email)

	if existing, err := svc.sqlSvc.GetUserByEmail(email); err == nil && existing != nil {
		return nil, shared.NewConflictError(nil, "Un compte existe déjà avec cet email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate user id")
	}

	userType := req.UserType
	if userType == "" {
		userType = shared.UserTypeStudent
	}

	now := time.Now()
	user := model.User{
		ID:        id.String(),
		Email:     email,
		Nickname:  req.Nickname,
		UserType:  userType,
		Password:  string(hashed),
		LastLogin: now,
	}

	if err := svc.sqlSvc.CreateUser(&user); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	profile := gamification.NewProfile(user.ID, user.Nickname, user.UserType, now)
	if err := svc.storeProfile(user.ID, &profile); err != nil {
		return nil, err
	}

	token, err := svc.jwtSvc.ToJWT(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue session")
	}

	log.WithField("user_id", user.ID).Info("User registered")
	return &dto.AuthResponse{
		Token:   token,
		User:    toUserInfo(&user),
		Profile: profile,
	}, nil
}

func (svc *AuthService) SignIn(req dto.SignInRequest) (*dto.AuthResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmail(strings.ToLower(req.Email))
	if err != nil {
		// Same message for unknown email and bad password.
		return nil, shared.NewUnauthorizedError(nil, "Email ou mot de passe incorrect")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(nil, "Email ou mot de passe incorrect")
	}

	if err := svc.sqlSvc.TouchLastLogin(user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login time")
	}

	profile, err := svc.LoadProfile(user.ID)
	if err != nil {
		return nil, err
	}

	token, err := svc.jwtSvc.ToJWT(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue session")
	}

	return &dto.AuthResponse{
		Token:   token,
		User:    toUserInfo(user),
		Profile: *profile,
	}, nil
}

// Session resolves a verified user id back into the resume payload.
func (svc *AuthService) Session(userID string) (*dto.SessionResponse, error) {
	user, err := svc.sqlSvc.GetUserByID(userID)
	if err != nil {
		return nil, shared.NewUnauthorizedError(err, "Session invalide")
	}

	profile, err := svc.LoadProfile(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(svc.jwtSvc.AccessTokenDuration),
		User:      toUserInfo(user),
		Profile:   profile,
	}, nil
}

// LoadProfile reads the stored profile payload, synthesizing a fresh one
// if a user somehow predates profile storage.
func (svc *AuthService) LoadProfile(userID string) (*model.UserProfile, error) {
	record, err := svc.sqlSvc.GetProfile(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			user, uerr := svc.sqlSvc.GetUserByID(userID)
			if uerr != nil {
				return nil, shared.NewNotFoundError(uerr, "Profil introuvable")
			}
			profile := gamification.NewProfile(user.ID, user.Nickname, user.UserType, time.Now())
			if serr := svc.storeProfile(userID, &profile); serr != nil {
				return nil, serr
			}
			return &profile, nil
		}
		return nil, svc.sqlSvc.HandleError(err)
	}

	var profile model.UserProfile
	if err := shared.JSONUnmarshal(record.Payload, &profile); err != nil {
		return nil, shared.NewInternalError(err, "Stored profile unreadable")
	}
	return &profile, nil
}

func (svc *AuthService) storeProfile(userID string, profile *model.UserProfile) error {
	payload, err := shared.JSONMarshal(profile)
	if err != nil {
		return shared.NewInternalError(err, "Failed to encode profile")
	}
	return svc.sqlSvc.SaveProfile(&model.ProfileRecord{
		UserID:    userID,
		Payload:   payload,
		UpdatedAt: time.Now(),
	})
}

func toUserInfo(user *model.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Nickname:  user.Nickname,
		UserType:  user.UserType,
		CreatedAt: user.CreatedAt,
	}
}
