package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:test-bot-token"

// signInitData produces a payload the way the Telegram client does.
func signInitData(t *testing.T, params url.Values, botToken string) string {
	t.Helper()
	lines := make([]string, 0, len(params))
	for key, values := range params {
		lines = append(lines, key+"="+values[0])
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	params.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return params.Encode()
}

func validParams() url.Values {
	return url.Values{
		"auth_date": {"1693820000"},
		"query_id":  {"AAH9mB0pAAAAAP2YHSlGvCkb"},
		"user":      {`{"id":12345,"first_name":"Alna","username":"alna_k"}`},
	}
}

func TestVerifyInitData(t *testing.T) {
	initData := signInitData(t, validParams(), testBotToken)

	claim, err := VerifyInitData(initData, testBotToken)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), claim.TelegramID)
	assert.Equal(t, "Alna", claim.FirstName)
	assert.Equal(t, "alna_k", claim.Username)
}

func TestVerifyInitDataWrongToken(t *testing.T) {
	initData := signInitData(t, validParams(), "999:other-token")

	_, err := VerifyInitData(initData, testBotToken)
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
}

func TestVerifyInitDataTampered(t *testing.T) {
	params := validParams()
	initData := signInitData(t, params, testBotToken)
	tampered := strings.Replace(initData, "12345", "54321", 1)

	_, err := VerifyInitData(tampered, testBotToken)
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
}

func TestVerifyInitDataMissingHash(t *testing.T) {
	_, err := VerifyInitData(validParams().Encode(), testBotToken)
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestVerifyInitDataMissingUser(t *testing.T) {
	params := url.Values{"auth_date": {"1693820000"}}
	initData := signInitData(t, params, testBotToken)

	_, err := VerifyInitData(initData, testBotToken)
	assert.Equal(t, KindValidation, kindOf(t, err))
}
