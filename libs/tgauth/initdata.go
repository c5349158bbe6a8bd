package tgauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// Telegram WebApp init-data verification. The front end forwards the raw
// init-data string it received from Telegram; we recompute the HMAC over the
// sorted key=value pairs with a secret derived from the bot token and compare
// it to the "hash" field.

var (
	ErrInvalidInitData = errors.New("invalid init data")
	ErrUserMissing     = errors.New("init data has no user field")
)

// User is the subset of the Telegram user payload this system cares about.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Verify checks the init-data signature against the bot token and returns the
// decoded key/value pairs (hash removed).
func Verify(initData, botToken string) (map[string]string, error) {
	if strings.TrimSpace(initData) == "" {
		return nil, ErrInvalidInitData
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	data := make(map[string]string, len(values))
	for k := range values {
		data[k] = values.Get(k)
	}
	gotHash := data["hash"]
	if gotHash == "" {
		return nil, ErrInvalidInitData
	}
	delete(data, "hash")

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+data[k])
	}
	checkString := strings.Join(pairs, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	_, _ = mac.Write([]byte(checkString))
	want := mac.Sum(nil)

	got, err := hex.DecodeString(gotHash)
	if err != nil || !hmac.Equal(got, want) {
		return nil, ErrInvalidInitData
	}
	return data, nil
}

// VerifiedUser verifies the init data and decodes its embedded user payload.
func VerifiedUser(initData, botToken string) (User, error) {
	data, err := Verify(initData, botToken)
	if err != nil {
		return User{}, err
	}
	raw := data["user"]
	if raw == "" {
		return User{}, ErrUserMissing
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, ErrInvalidInitData
	}
	if u.ID == 0 {
		return User{}, ErrInvalidInitData
	}
	return u, nil
}
