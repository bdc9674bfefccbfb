package myhttp

import (
	"net/http"
	"strings"
)

const (
	DeviceUIDHeader = "X-Device-UID"
	DeviceUIDCookie = "device_uid"
)

// DeviceUID identifies the browser a request comes from, header first, cookie second.
func DeviceUID(r *http.Request) string {
	uid := strings.TrimSpace(r.Header.Get(DeviceUIDHeader))
	if uid != "" {
		return uid
	}
	cookie, err := r.Cookie(DeviceUIDCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
