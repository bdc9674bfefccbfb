package myhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceUID(t *testing.T) {
	t.Run("From header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(DeviceUIDHeader, "dev_1")
		r.AddCookie(&http.Cookie{Name: DeviceUIDCookie, Value: "dev_2"})
		assert.Equal(t, "dev_1", DeviceUID(r))
	})

	t.Run("From cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: DeviceUIDCookie, Value: "dev_2"})
		assert.Equal(t, "dev_2", DeviceUID(r))
	})

	t.Run("Absent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, "", DeviceUID(r))
	})
}
