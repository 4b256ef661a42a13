package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/jgivc/saidl/internal/repository/page"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, target entity.FetchTarget) (*entity.FetchResult, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return &entity.FetchResult{
		URL:         target.URL,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte("<h1>page</h1>"),
	}, nil
}

func TestCachedFetcher(t *testing.T) {
	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cl.Close() })

	f := &countingFetcher{}
	c := NewCachedFetcher(f, page.NewPageRepository(cl, time.Hour, newLogger()), newLogger())
	target := entity.FetchTarget{URL: "http://example.com/1.html"}

	first, err := c.Fetch(context.Background(), target)
	require.NoError(t, err)

	second, err := c.Fetch(context.Background(), target)
	require.NoError(t, err)

	require.Equal(t, 1, f.calls)
	require.Equal(t, first.Body, second.Body)
	require.Equal(t, first.URL, second.URL)

	mr.FastForward(2 * time.Hour)

	_, err = c.Fetch(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, 2, f.calls)
}

func TestCachedFetcherUnavailableCache(t *testing.T) {
	// Nothing listens on port 1.
	cl := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { cl.Close() })

	f := &countingFetcher{}
	c := NewCachedFetcher(f, page.NewPageRepository(cl, 0, newLogger()), newLogger())

	res, err := c.Fetch(context.Background(), entity.FetchTarget{URL: "http://example.com/1.html"})
	require.NoError(t, err)
	require.Equal(t, 1, f.calls)
	require.Equal(t, []byte("<h1>page</h1>"), res.Body)
}

func TestCachedFetcherFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cl.Close() })

	fetchErr := &common.HTTPStatusError{URL: "http://example.com/1.html", Code: 500}
	f := &countingFetcher{err: fetchErr}
	c := NewCachedFetcher(f, page.NewPageRepository(cl, 0, newLogger()), newLogger())

	_, err := c.Fetch(context.Background(), entity.FetchTarget{URL: "http://example.com/1.html"})
	require.True(t, errors.Is(err, fetchErr))
	require.Empty(t, mr.Keys())
}
