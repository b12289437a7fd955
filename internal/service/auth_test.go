package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

func newAuth(t *testing.T) Auth {
	t.Helper()
	mem := store.NewMemory()
	dir := NewDirectory(mem.UsersStore(), zap.NewNop())
	return NewAuth(dir, testBotToken, "test-secret")
}

func TestLoginIssuesParsableSession(t *testing.T) {
	a := newAuth(t)
	initData := signInitData(t, validParams(), testBotToken)

	user, token, err := a.Login(context.Background(), initData)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.TelegramID)
	assert.Equal(t, model.RoleConsumer, user.Role)
	require.NotEmpty(t, token)

	sub, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), sub)
}

func TestLoginRejectsBadAssertions(t *testing.T) {
	a := newAuth(t)

	_, _, err := a.Login(context.Background(), "")
	assert.Equal(t, KindValidation, kindOf(t, err))

	_, _, err = a.Login(context.Background(), signInitData(t, validParams(), "999:other-token"))
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	a := newAuth(t)

	_, err := a.ParseToken("not.a.jwt")
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
}
