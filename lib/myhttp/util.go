package myhttp

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// HostnameWithScheme is the base url that browsers reach us on, used to build callback urls.
// PUBLIC_HOSTNAME wins. Otherwise it is derived from the request, honouring a proxy in front.
func HostnameWithScheme(r *http.Request) string {
	publicHostname := strings.TrimSuffix(os.Getenv("PUBLIC_HOSTNAME"), "/")
	if publicHostname != "" {
		return publicHostname
	}

	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}
