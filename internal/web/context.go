package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/csvlint/internal/service"
)

// WithRequestMetadata copies the client address into ctx for service logs.
// RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return service.ContextWithClientIP(ctx, ip)
}
