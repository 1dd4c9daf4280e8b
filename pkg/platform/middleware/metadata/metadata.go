package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"carewatch/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, raw User-Agent and a parsed device
// summary from the request and stores them in the request context.
// Apply it early in the chain; audit events read these values.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua)
		ctx = requestcontext.WithDevice(ctx, DeviceSummary(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceSummary renders a User-Agent as "browser/os", e.g. "Firefox/Linux".
// Bots are reported as "bot/<name>". Empty input yields "".
func DeviceSummary(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if parsed.Bot() {
		return "bot/" + browser
	}
	os := parsed.OSInfo().Name
	if os == "" {
		os = parsed.Platform()
	}
	if parsed.Mobile() {
		os += " (mobile)"
	}
	return browser + "/" + os
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...); the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port".
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
