package config

import (
	"math"
	"testing"
	"time"

	"github.com/jgivc/saidl/internal/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.yml", []byte(content), 0644))

	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvRedisURL, "")

	cfg, err := LoadWithFS(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	require.Equal(t, LogLevelInfo, cfg.LogLevel)
	require.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	require.Nil(t, cfg.HTTP.Retry)
	require.Equal(t, "ts", cfg.Media.Ext)
	require.Equal(t, "ffmpeg", cfg.Media.FFmpeg)
}

func TestLoadFlows(t *testing.T) {
	testCases := []struct {
		name   string
		config string
		check  func(t *testing.T, f Flow)
	}{
		{
			name: "iter",
			config: `
book:
  name: Book
  title_selector: h1
  content_selector: "#content"
  flow:
    mode: iter
    args:
      base_url: https://example.com/1.html
      next_selector: a.next
      stop_url: https://example.com/9.html
      relative_base: https://example.com/
`,
			check: func(t *testing.T, f Flow) {
				require.Equal(t, FlowIter, f.Mode)
				require.NotNil(t, f.Iter)
				require.Nil(t, f.TOC)
				require.Nil(t, f.Num)
				require.Equal(t, "a.next", f.Iter.NextSelector)
				require.Equal(t, "https://example.com/", f.Iter.RelativeBase)
			},
		},
		{
			name: "toc",
			config: `
book:
  name: Book
  title_selector: h1
  content_selector: "#content"
  flow:
    mode: toc
    args:
      base_url: https://example.com/index.html
      void_sub: https://example.com/blank.html
`,
			check: func(t *testing.T, f Flow) {
				require.Equal(t, FlowTOC, f.Mode)
				require.Equal(t, "https://example.com/blank.html", f.TOC.VoidSub)
				require.Empty(t, f.TOC.TOCSelector)
			},
		},
		{
			name: "num",
			config: `
book:
  name: Book
  title_selector: h1
  content_selector: "#content"
  flow:
    mode: num
    args:
      pattern: https://example.com/page-$.html
      start: 1
      end: 3
`,
			check: func(t *testing.T, f Flow) {
				require.Equal(t, FlowNum, f.Mode)
				require.Equal(t, &NumConfig{Pattern: "https://example.com/page-$.html", Start: 1, End: 3}, f.Num)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadWithFS(writeConfig(t, tc.config), "/config.yml")
			require.NoError(t, err)
			require.NoError(t, cfg.Book.Validate())
			tc.check(t, cfg.Book.Flow)
		})
	}
}

func TestLoadHTTP(t *testing.T) {
	cfg, err := LoadWithFS(writeConfig(t, `
http:
  h2: true
  timeout: 5s
  retry: 3
  retry_backoff: 250ms
  delay: 2s
  rate_limit: 4
`), "/config.yml")
	require.NoError(t, err)
	require.True(t, cfg.HTTP.H2)
	require.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	require.NotNil(t, cfg.HTTP.Retry)
	require.Equal(t, 3, *cfg.HTTP.Retry)
	require.Equal(t, 250*time.Millisecond, cfg.HTTP.RetryBackoff)
	require.Equal(t, 2*time.Second, cfg.HTTP.Delay)
	require.Equal(t, 4.0, cfg.HTTP.RateLimit)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, LogLevelDebug)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/1")

	cfg, err := LoadWithFS(writeConfig(t, "log_level: warn\n"), "/config.yml")
	require.NoError(t, err)
	require.Equal(t, LogLevelDebug, cfg.LogLevel)
	require.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name   string
		config string
		target error
	}{
		{name: "unknown flow", config: "book:\n  flow:\n    mode: crawl\n", target: common.ErrUnknownFlow},
		{name: "bad log level", config: "log_level: loud\n"},
		{name: "negative retry", config: "http:\n  retry: -1\n"},
		{name: "broken yaml", config: "http: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, "")

			_, err := LoadWithFS(writeConfig(t, tc.config), "/config.yml")
			require.Error(t, err)
			if tc.target != nil {
				require.ErrorIs(t, err, tc.target)
			}
		})
	}

	_, err := LoadWithFS(afero.NewMemMapFs(), "/missing.yml")
	require.Error(t, err)
}

func TestBookValidate(t *testing.T) {
	testCases := []struct {
		name string
		cfg  BookConfig
	}{
		{"no name", BookConfig{TitleSelector: "h1", ContentSelector: "p", Flow: Flow{Mode: FlowNum, Num: &NumConfig{Pattern: "$"}}}},
		{"no selectors", BookConfig{Name: "b", Flow: Flow{Mode: FlowNum, Num: &NumConfig{Pattern: "$"}}}},
		{"iter without stop", BookConfig{Name: "b", TitleSelector: "h1", ContentSelector: "p", Flow: Flow{Mode: FlowIter, Iter: &IterationConfig{BaseURL: "u", NextSelector: "a"}}}},
		{"num reversed range", BookConfig{Name: "b", TitleSelector: "h1", ContentSelector: "p", Flow: Flow{Mode: FlowNum, Num: &NumConfig{Pattern: "$", Start: 3, End: 1}}}},
		{"num unbounded range", BookConfig{Name: "b", TitleSelector: "h1", ContentSelector: "p", Flow: Flow{Mode: FlowNum, Num: &NumConfig{Pattern: "$", Start: 0, End: math.MaxInt}}}},
		{"empty flow", BookConfig{Name: "b", TitleSelector: "h1", ContentSelector: "p"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.cfg.Validate())
		})
	}
}

func TestNumCount(t *testing.T) {
	testCases := []struct {
		name    string
		start   int
		end     int
		want    int
		wantErr bool
	}{
		{name: "single", start: 5, end: 5, want: 1},
		{name: "range", start: 1, end: 10, want: 10},
		{name: "negative start", start: -2, end: 2, want: 5},
		{name: "top of int", start: math.MaxInt - 2, end: math.MaxInt, want: 3},
		{name: "largest allowed", start: 1, end: MaxNumTargets, want: MaxNumTargets},
		{name: "one too many", start: 0, end: MaxNumTargets, wantErr: true},
		{name: "reversed", start: 3, end: 1, wantErr: true},
		{name: "whole int range", start: math.MinInt, end: math.MaxInt, wantErr: true},
		{name: "zero to max", start: 0, end: math.MaxInt, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := (&NumConfig{Pattern: "$", Start: tc.start, End: tc.end}).Count()
			if tc.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidRange)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
