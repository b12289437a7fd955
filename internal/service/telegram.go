package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Claim is the identity extracted from a verified Telegram WebApp assertion.
type Claim struct {
	TelegramID int64  `json:"id"`
	FirstName  string `json:"first_name"`
	Username   string `json:"username"`
}

// VerifyInitData checks a Telegram WebApp initData payload against the bot
// token and extracts the embedded user claim. The scheme is Telegram's:
// secret = HMAC-SHA256("WebAppData", botToken), signature = HMAC-SHA256 of
// the sorted key=value lines with the hash parameter removed.
func VerifyInitData(initData, botToken string) (*Claim, error) {
	params, err := url.ParseQuery(initData)
	if err != nil {
		return nil, E(KindValidation, "Malformed init data")
	}
	gotHash := params.Get("hash")
	if gotHash == "" {
		return nil, E(KindValidation, "No hash in init data")
	}
	params.Del("hash")

	lines := make([]string, 0, len(params))
	for key, values := range params {
		lines = append(lines, key+"="+values[0])
	}
	sort.Strings(lines)
	dataCheckString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, E(KindUnauthorized, "Invalid Telegram data")
	}

	userStr := params.Get("user")
	if userStr == "" {
		return nil, E(KindValidation, "No user data in init data")
	}
	var claim Claim
	if err := json.Unmarshal([]byte(userStr), &claim); err != nil || claim.TelegramID == 0 {
		return nil, E(KindValidation, "Malformed user data in init data")
	}
	return &claim, nil
}
