// Package ratelimit resolves which RateLimit dimensions apply to a given
// request and drives them through services.RateLimitManager, generalizing
// the teacher's token-bucket package into the spec's distributed,
// multi-window admission check.
package ratelimit

import (
	"context"
	"fmt"

	"kingo/internal/app"
	"kingo/internal/config"
	"kingo/internal/domain/rlimit"
	"kingo/internal/domain/vo"
	"kingo/internal/services"
)

const (
	LimitTypeBatchMinute   = "per_minute_batch"
	LimitTypeVideoOnly     = "video_only_daily"
	LimitTypeAudioOnly     = "audio_only_daily"
	LimitTypeVideoAudio    = "video_audio_daily"
	LimitTypeTotalJobs     = "total_jobs_daily"
	endpointHourlyLimitFmt = "endpoint_hourly:%s"
)

// Resolver turns configuration into the concrete vo.RateLimit dimensions
// §4.7 requires for a given request: per-minute batch, per-type daily
// (category implied by the request's mute flags), total daily, and
// endpoint-scoped hourly for metadata-style endpoints.
type Resolver struct {
	enabled        bool
	batchMinute    int
	videoOnlyDaily int
	audioOnlyDaily int
	videoAudioDaily int
	totalJobsDaily int
	endpointHourly map[string]int
}

// NewResolver builds a Resolver from the service's startup configuration.
func NewResolver(cfg config.Config) *Resolver {
	endpoints := make(map[string]int, len(cfg.RateLimitEndpointHourly))
	for _, e := range cfg.RateLimitEndpointHourly {
		endpoints[e.Path] = e.Limit
	}
	return &Resolver{
		enabled:         cfg.RateLimitEnabled,
		batchMinute:     cfg.RateLimitBatchMinute,
		videoOnlyDaily:  cfg.RateLimitVideoOnlyDaily,
		audioOnlyDaily:  cfg.RateLimitAudioOnlyDaily,
		videoAudioDaily: cfg.RateLimitVideoAudioDaily,
		totalJobsDaily:  cfg.RateLimitTotalJobsDaily,
		endpointHourly:  endpoints,
	}
}

// Enabled reports whether rate limiting is active at all; callers should
// skip every check when false.
func (r *Resolver) Enabled() bool { return r.enabled }

// DownloadDimensions computes the three limit dimensions that apply to a
// job-creation request: the per-minute batch ceiling, the daily ceiling for
// the format category implied by the request's mute flags, and the total
// daily job ceiling.
func (r *Resolver) DownloadDimensions(req app.DownloadRequest) []vo.RateLimit {
	dims := make([]vo.RateLimit, 0, 3)
	if lim, err := vo.NewRateLimit(r.batchMinute, 60, LimitTypeBatchMinute); err == nil {
		dims = append(dims, lim)
	}
	categoryType, categoryLimit := r.category(req)
	if lim, err := vo.NewRateLimit(categoryLimit, 86400, categoryType); err == nil {
		dims = append(dims, lim)
	}
	if lim, err := vo.NewRateLimit(r.totalJobsDaily, 86400, LimitTypeTotalJobs); err == nil {
		dims = append(dims, lim)
	}
	return dims
}

func (r *Resolver) category(req app.DownloadRequest) (string, int) {
	switch {
	case req.MuteVideo:
		return LimitTypeAudioOnly, r.audioOnlyDaily
	case req.MuteAudio:
		return LimitTypeVideoOnly, r.videoOnlyDaily
	default:
		return LimitTypeVideoAudio, r.videoAudioDaily
	}
}

// EndpointDimension returns the configured hourly limit for path, if one
// was set via RATE_LIMIT_ENDPOINT_HOURLY.
func (r *Resolver) EndpointDimension(path string) (vo.RateLimit, bool) {
	limit, ok := r.endpointHourly[path]
	if !ok {
		return vo.RateLimit{}, false
	}
	lim, err := vo.NewRateLimit(limit, 3600, endpointLimitType(path))
	if err != nil {
		return vo.RateLimit{}, false
	}
	return lim, true
}

func endpointLimitType(path string) string {
	return fmt.Sprintf(endpointHourlyLimitFmt, path)
}

// Checker drives a set of resolved dimensions through RateLimitManager in
// order, stopping at the first exceeded dimension. Independent counters
// already incremented for prior, passing dimensions are not rolled back —
// each dimension is its own admission gate, same as the Python original.
type Checker struct {
	manager *services.RateLimitManager
}

// NewChecker constructs a Checker around an already-built RateLimitManager.
func NewChecker(manager *services.RateLimitManager) *Checker {
	return &Checker{manager: manager}
}

// CheckAll runs clientIP through every dimension in dims, in order.
// On success it returns every resulting state (callers typically surface
// the first dimension's headers); on the first exceeded dimension it
// returns the offending state and a *apperrors.RateLimitExceededError.
func (c *Checker) CheckAll(ctx context.Context, clientIP vo.ClientIP, dims []vo.RateLimit) ([]rlimit.State, error) {
	states := make([]rlimit.State, 0, len(dims))
	for _, dim := range dims {
		state, err := c.manager.CheckAndIncrement(ctx, clientIP, dim)
		if err != nil {
			return []rlimit.State{state}, err
		}
		states = append(states, state)
	}
	return states, nil
}
