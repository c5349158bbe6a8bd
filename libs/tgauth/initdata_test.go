package tgauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"testing"
)

func signInitData(t *testing.T, fields map[string]string, botToken string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	_, _ = mac.Write([]byte(strings.Join(pairs, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func TestVerifiedUserRoundTrip(t *testing.T) {
	token := "12345:test-token"
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42,"username":"nailart","first_name":"Ann"}`,
	}, token)

	u, err := VerifiedUser(initData, token)
	if err != nil {
		t.Fatalf("VerifiedUser failed: %v", err)
	}
	if u.ID != 42 || u.Username != "nailart" || u.FirstName != "Ann" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42}`,
	}, "12345:test-token")

	if _, err := Verify(initData, "12345:other-token"); err == nil {
		t.Fatal("expected verification error with wrong token")
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	token := "12345:test-token"
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42}`,
	}, token)
	tampered := strings.Replace(initData, "1700000000", "1700000001", 1)

	if _, err := Verify(tampered, token); err == nil {
		t.Fatal("expected verification error for tampered init data")
	}
}

func TestVerifyRejectsMissingHash(t *testing.T) {
	if _, err := Verify("auth_date=1&user=%7B%22id%22%3A1%7D", "t"); err == nil {
		t.Fatal("expected error when hash is missing")
	}
	if _, err := Verify("", "t"); err == nil {
		t.Fatal("expected error for empty init data")
	}
}

func TestVerifiedUserRequiresUserField(t *testing.T) {
	token := "12345:test-token"
	initData := signInitData(t, map[string]string{"auth_date": "1700000000"}, token)

	if _, err := VerifiedUser(initData, token); err != ErrUserMissing {
		t.Fatalf("expected ErrUserMissing, got %v", err)
	}
}
