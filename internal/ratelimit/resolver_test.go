package ratelimit_test

import (
	"testing"

	"kingo/internal/app"
	"kingo/internal/config"
	"kingo/internal/ratelimit"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RateLimitBatchMinute = 100
	cfg.RateLimitVideoOnlyDaily = 20
	cfg.RateLimitAudioOnlyDaily = 15
	cfg.RateLimitVideoAudioDaily = 10
	cfg.RateLimitTotalJobsDaily = 50
	cfg.RateLimitEndpointHourly = []config.EndpointLimit{{Path: "/api/v1/videos/resolutions", Limit: 30}}
	return cfg
}

func TestDownloadDimensions_VideoAudioDefault(t *testing.T) {
	r := ratelimit.NewResolver(testConfig())
	dims := r.DownloadDimensions(app.DownloadRequest{})
	if len(dims) != 3 {
		t.Fatalf("got %d dims, want 3", len(dims))
	}
	if dims[1].LimitType != ratelimit.LimitTypeVideoAudio || dims[1].Limit != 10 {
		t.Errorf("unexpected category dimension: %+v", dims[1])
	}
}

func TestDownloadDimensions_MuteVideoIsAudioOnly(t *testing.T) {
	r := ratelimit.NewResolver(testConfig())
	dims := r.DownloadDimensions(app.DownloadRequest{MuteVideo: true})
	if dims[1].LimitType != ratelimit.LimitTypeAudioOnly || dims[1].Limit != 15 {
		t.Errorf("unexpected category dimension: %+v", dims[1])
	}
}

func TestDownloadDimensions_MuteAudioIsVideoOnly(t *testing.T) {
	r := ratelimit.NewResolver(testConfig())
	dims := r.DownloadDimensions(app.DownloadRequest{MuteAudio: true})
	if dims[1].LimitType != ratelimit.LimitTypeVideoOnly || dims[1].Limit != 20 {
		t.Errorf("unexpected category dimension: %+v", dims[1])
	}
}

func TestEndpointDimension_Configured(t *testing.T) {
	r := ratelimit.NewResolver(testConfig())
	lim, ok := r.EndpointDimension("/api/v1/videos/resolutions")
	if !ok || lim.Limit != 30 || lim.WindowSeconds != 3600 {
		t.Errorf("unexpected endpoint dimension: %+v ok=%v", lim, ok)
	}
}

func TestEndpointDimension_Unconfigured(t *testing.T) {
	r := ratelimit.NewResolver(testConfig())
	if _, ok := r.EndpointDimension("/api/v1/unknown"); ok {
		t.Error("expected no dimension for unconfigured path")
	}
}
