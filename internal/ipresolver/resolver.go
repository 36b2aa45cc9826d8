// Package ipresolver determines the client address of a capture request.
//
// Local signals (proxy headers, then the socket address) are preferred. When
// they yield nothing usable, a single call to a public IP-echo service is made
// under a timeout; if that fails too the record is stored with the
// models.IPUnavailable sentinel. Resolution never fails the request.
package ipresolver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"geocapture/internal/logging"
	"geocapture/internal/metrics"
	"geocapture/models"

	"github.com/goccy/go-json"
)

const ipv4MappedPrefix = "::ffff:"

// PublicIPLookup asks an external service for the caller's public address.
type PublicIPLookup interface {
	PublicIP(ctx context.Context) (string, error)
}

type Resolver struct {
	lookup  PublicIPLookup
	timeout time.Duration
}

func NewResolver(lookup PublicIPLookup, timeout time.Duration) *Resolver {
	return &Resolver{lookup: lookup, timeout: timeout}
}

// Resolve returns the best-effort client IP for r. The result is never empty.
func (res *Resolver) Resolve(ctx context.Context, r *http.Request) string {
	ip := ClientIP(r)
	if !needsLookup(ip) {
		return ip
	}

	lookupCtx, cancel := context.WithTimeout(ctx, res.timeout)
	defer cancel()

	public, err := res.lookup.PublicIP(lookupCtx)
	if err != nil {
		metrics.IPLookupsTotal.WithLabelValues("failure").Inc()
		logging.Warn().Err(err).Str("local_ip", ip).Msg("Could not fetch external IP")
		return models.IPUnavailable
	}
	metrics.IPLookupsTotal.WithLabelValues("success").Inc()
	return public
}

// ClientIP extracts the client address from proxy headers or the socket,
// without any network calls. Returns models.IPUnknown when nothing is present.
func ClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = remoteHost(r.RemoteAddr)
	}

	// proxy chain: client, proxy1, proxy2
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = ip[:i]
	}
	ip = strings.TrimSpace(ip)

	if i := strings.Index(ip, ipv4MappedPrefix); i >= 0 {
		ip = ip[i+len(ipv4MappedPrefix):]
	}

	if ip == "" {
		return models.IPUnknown
	}
	return ip
}

func remoteHost(addr string) string {
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// no port
		return strings.Trim(addr, "[]")
	}
	return host
}

func needsLookup(ip string) bool {
	switch ip {
	case models.IPUnknown, "::1", "127.0.0.1":
		return true
	}
	return false
}

// HTTPLookup queries an ipify-compatible endpoint returning {"ip": "..."}.
type HTTPLookup struct {
	url    string
	client *http.Client
}

// NewHTTPLookup creates a lookup against url. The request deadline comes from
// the caller's context; client may be nil.
func NewHTTPLookup(url string, client *http.Client) *HTTPLookup {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPLookup{url: url, client: client}
}

func (l *HTTPLookup) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build ip lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ip lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode ip lookup response: %w", err)
	}

	ip := strings.TrimSpace(body.IP)
	if ip == "" {
		return "", fmt.Errorf("ip lookup returned an empty address")
	}
	return ip, nil
}
