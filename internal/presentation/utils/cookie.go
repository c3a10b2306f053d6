package utils

import (
	"encoding/base64"
	"net/http"
	"time"
)

const CookieMemberID = "member_id"

// GetMemberID returns the member id stored in the request's member cookie,
// or "" when there is none or it cannot be decoded.
func GetMemberID(r *http.Request) string {
	cookie, err := r.Cookie(CookieMemberID)
	if err != nil {
		return ""
	}

	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}

	return string(decoded)
}

func SetMemberIDCookie(w http.ResponseWriter, memberID string) {
	cookieExpiry := time.Now().Add(24 * time.Hour)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieMemberID,
		Value:    base64.StdEncoding.EncodeToString([]byte(memberID)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  cookieExpiry,
	})
}
