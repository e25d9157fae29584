package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"tubedigest/domain/dto"
	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"
	"tubedigest/infrastructure/utils"
)

// SessionTokenTTL is how long a minted dashboard session stays valid.
const SessionTokenTTL = 24 * time.Hour

type ISessionUsecase interface {
	// CompleteSignIn upserts the account after an OAuth exchange, stores
	// the encrypted token pair and mints the session JWT.
	CompleteSignIn(ctx context.Context, email, name, accessToken, refreshToken string, expiresAt *time.Time) (string, error)
	// CurrentUser resolves the authenticated identity for GET /me. The
	// account row must still exist; a deleted account invalidates the
	// session even when the JWT itself verifies.
	CurrentUser(ctx context.Context, email string) (dto.MeResponse, error)
	// SignOut revokes the stored credential. The caller clears the cookie.
	SignOut(ctx context.Context, email string) error
}

type sessionUsecase struct {
	users       repository.IUser
	credentials repository.ICredential
	secretKey   string
}

func NewSessionUsecase(users repository.IUser, credentials repository.ICredential, secretKey string) ISessionUsecase {
	return &sessionUsecase{users: users, credentials: credentials, secretKey: secretKey}
}

func (u *sessionUsecase) CompleteSignIn(ctx context.Context, email, name, accessToken, refreshToken string, expiresAt *time.Time) (string, error) {
	if email == "" {
		return "", errors.New("email required")
	}
	user, err := u.users.UpsertByEmail(ctx, model.User{Email: email, Name: name})
	if err != nil {
		return "", err
	}
	if err := u.credentials.Upsert(ctx, user.ID, "google", accessToken, refreshToken, expiresAt); err != nil {
		return "", err
	}

	now := utils.GetCurrentTime()
	token, err := utils.GenerateToken(map[string]interface{}{
		"email": user.Email,
		"iss":   user.ID,
		"iat":   now.Unix(),
		"exp":   now.Add(SessionTokenTTL).Unix(),
	}, u.secretKey)
	if err != nil {
		return "", err
	}
	logger.GetLogger().WithField("user_id", user.ID).Info("sign-in completed")
	return token, nil
}

func (u *sessionUsecase) CurrentUser(ctx context.Context, email string) (dto.MeResponse, error) {
	user, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		return dto.MeResponse{}, model.ErrAuthenticationRequired
	}
	return dto.MeResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		Timezone:  user.Timezone,
	}, nil
}

func (u *sessionUsecase) SignOut(ctx context.Context, email string) error {
	user, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		// Already gone; sign-out is idempotent.
		return nil
	}
	return u.credentials.Delete(ctx, user.ID, "google")
}

// ParseClaims verifies a session JWT and returns its claims. Shared by the
// auth middleware and tests.
func ParseClaims(tokenString, secretKey string) (model.UserClaims, error) {
	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return model.UserClaims{}, err
	}
	if !token.Valid {
		return model.UserClaims{}, errors.New("invalid token")
	}
	return claims, nil
}
