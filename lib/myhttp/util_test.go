package myhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostnameWithScheme(t *testing.T) {
	t.Run("From request", func(t *testing.T) {
		t.Setenv("PUBLIC_HOSTNAME", "")
		r := httptest.NewRequest(http.MethodGet, "http://menu.local/checkout/store_1", nil)
		assert.Equal(t, "http://menu.local", HostnameWithScheme(r))
	})

	t.Run("Behind proxy", func(t *testing.T) {
		t.Setenv("PUBLIC_HOSTNAME", "")
		r := httptest.NewRequest(http.MethodGet, "http://10.0.0.1/checkout/store_1", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		r.Header.Set("X-Forwarded-Host", "menu.example.com")
		assert.Equal(t, "https://menu.example.com", HostnameWithScheme(r))
	})

	t.Run("Configured", func(t *testing.T) {
		t.Setenv("PUBLIC_HOSTNAME", "https://menu.example.com/")
		r := httptest.NewRequest(http.MethodGet, "http://10.0.0.1/checkout/store_1", nil)
		assert.Equal(t, "https://menu.example.com", HostnameWithScheme(r))
	})
}
