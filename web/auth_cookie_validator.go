package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

const authCookieName = "auth"

// Dashboard sessions are a signed cookie, not server-side state. The cookie
// value is base64url(username) + "." + base64url(HMAC-SHA256(username)),
// keyed with the configured secret.
func signAuthCookie(username, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username))

	return base64.RawURLEncoding.EncodeToString([]byte(username)) +
		"." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifyAuthCookie reports whether value is a cookie signed with secret.
func verifyAuthCookie(value, secret string) bool {
	encodedName, encodedSig, ok := strings.Cut(value, ".")
	if !ok {
		return false
	}

	name, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(name)
	return hmac.Equal(sig, mac.Sum(nil))
}

func isAuthenticated(r *http.Request, secret string) bool {
	cookie, err := r.Cookie(authCookieName)
	return err == nil && verifyAuthCookie(cookie.Value, secret)
}
