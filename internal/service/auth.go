package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

type Auth interface {
	// Login verifies a Telegram initData assertion, provisions or
	// refreshes the user and issues a session token.
	Login(ctx context.Context, initData string) (*model.User, string, error)
	ParseToken(token string) (string, error) // returns the user id hex
}

type auth struct {
	dir      Directory
	botToken string
	secret   []byte
}

func NewAuth(dir Directory, botToken, jwtSecret string) Auth {
	return &auth{dir: dir, botToken: botToken, secret: []byte(jwtSecret)}
}

func (a *auth) Login(ctx context.Context, initData string) (*model.User, string, error) {
	if initData == "" {
		return nil, "", E(KindValidation, "No init data provided")
	}
	claim, err := VerifyInitData(initData, a.botToken)
	if err != nil {
		return nil, "", err
	}
	u, err := a.dir.UpsertFromLogin(ctx, claim)
	if err != nil {
		return nil, "", err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.ID.Hex(),
		"typ": "session",
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	token, err := t.SignedString(a.secret)
	if err != nil {
		return nil, "", Wrap("Failed to sign session token", err)
	}
	return u, token, nil
}

func (a *auth) ParseToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", E(KindUnauthorized, "Invalid session")
	}
	if claims["typ"] != "session" {
		return "", E(KindUnauthorized, "Invalid token type")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", E(KindUnauthorized, "Invalid subject")
	}
	return sub, nil
}
