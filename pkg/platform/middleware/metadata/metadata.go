package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"siret-api/pkg/requestcontext"
)

// Resolver determines the client address of a request. Forwarding headers
// are honoured only when the peer is one of the trusted proxies; otherwise the
// peer address is the client.
type Resolver struct {
	trusted []netip.Prefix
}

// NewResolver creates a Resolver trusting the given proxy networks. With none,
// forwarding headers are ignored.
func NewResolver(trusted []netip.Prefix) *Resolver {
	return &Resolver{trusted: trusted}
}

// ClientMetadata extracts the peer address and User-Agent, ignoring forwarding
// headers. Use Resolver.Middleware behind a trusted proxy.
func ClientMetadata(next http.Handler) http.Handler {
	return NewResolver(nil).Middleware(next)
}

// Middleware adds the client IP and User-Agent to the request context. Apply it
// before anything that logs the host.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), res.ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the peer address, or the forwarded client when the peer is a
// trusted proxy.
func (res *Resolver) ClientIP(r *http.Request) string {
	peer := PeerIP(r)
	if !res.isTrusted(peer) {
		return peer
	}

	// X-Forwarded-For lists client, proxy1, proxy2...; the first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func (res *Resolver) isTrusted(peer string) bool {
	if len(res.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// PeerIP returns the host part of the connection's remote address.
func PeerIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
