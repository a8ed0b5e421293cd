package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"kingo/internal/app"
	"kingo/internal/domain/rlimit"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/logger"
	"kingo/internal/ratelimit"
)

// RateLimiter wires §4.7's admission check into the request path: resolve
// which dimensions apply, check-and-increment each in order, set the
// X-RateLimit-* headers from the first dimension's state (on a rejection,
// from the state of the dimension that rejected), and let the handler run
// only if every dimension admitted.
type RateLimiter struct {
	resolver *ratelimit.Resolver
	checker  *ratelimit.Checker
}

// NewRateLimiter constructs a RateLimiter.
func NewRateLimiter(resolver *ratelimit.Resolver, checker *ratelimit.Checker) *RateLimiter {
	return &RateLimiter{resolver: resolver, checker: checker}
}

// Downloads gates POST /api/v1/downloads/ with the per-minute-batch,
// per-category-daily, and total-daily dimensions, peeking at the request
// body to determine the format category without consuming it for the
// handler downstream.
func (rl *RateLimiter) Downloads(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.resolver.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		clientIP, err := extractClientIP(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		var body createDownloadRequest
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		r.Body = io.NopCloser(bytes.NewReader(raw))

		req := app.DownloadRequest{MuteVideo: body.MuteVideo, MuteAudio: body.MuteAudio}
		dims := rl.resolver.DownloadDimensions(req)
		rl.gate(w, r, next, clientIP, dims)
	})
}

// Endpoint gates a metadata-style endpoint (e.g. /api/v1/videos/resolutions)
// with its configured hourly limit, a no-op if none was configured for
// this path.
func (rl *RateLimiter) Endpoint(path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.resolver.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			lim, ok := rl.resolver.EndpointDimension(path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			clientIP, err := extractClientIP(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			rl.gate(w, r, next, clientIP, []vo.RateLimit{lim})
		})
	}
}

func (rl *RateLimiter) gate(w http.ResponseWriter, r *http.Request, next http.Handler, clientIP vo.ClientIP, dims []vo.RateLimit) {
	states, err := rl.checker.CheckAll(r.Context(), clientIP, dims)
	if len(states) > 0 {
		setHeaders(w, states[0])
	}
	if err != nil {
		writeError(w, err)
		return
	}
	next.ServeHTTP(w, r)
}

func setHeaders(w http.ResponseWriter, state rlimit.State) {
	for k, v := range state.Headers() {
		w.Header().Set(k, v)
	}
}

// extractClientIP parses the request's remote address, preferring
// X-Forwarded-For's first hop when present (the service typically sits
// behind a reverse proxy), falling back to RemoteAddr.
func extractClientIP(r *http.Request) (vo.ClientIP, error) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		fwd = strings.TrimSpace(fwd)
		if host, _, err := net.SplitHostPort(fwd); err == nil {
			if ip, parseErr := vo.NewClientIP(host); parseErr == nil {
				return ip, nil
			}
		}
		if ip, err := vo.NewClientIP(fwd); err == nil {
			return ip, nil
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip, err := vo.NewClientIP(host)
	if err != nil {
		logger.Log.Warn().Str("remote_addr", r.RemoteAddr).Msg("could not parse client ip for rate limiting")
		return vo.ClientIP{}, apperrors.Categorize(apperrors.CategorySystemError, err)
	}
	return ip, nil
}
