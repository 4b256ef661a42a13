package page

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/jgivc/saidl/internal/util"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPage = "pg" // HASH. pg:{sha1(request url)} -> body, content type, final url, status

	KeySeparator = ":"

	fieldBody        = "body"
	fieldContentType = "ct"
	fieldURL         = "url"
	fieldStatus      = "st"
)

type pageRepository struct {
	cl  *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewPageRepository(cl *redis.Client, ttl time.Duration, log *slog.Logger) *pageRepository {
	return &pageRepository{
		cl:  cl,
		ttl: ttl,
		log: log.With(slog.String("item", "PageRepository")),
	}
}

// Get returns the cached page fetched from url or common.ErrPageNotFound.
func (r *pageRepository) Get(ctx context.Context, url string) (*entity.FetchResult, error) {
	fields, err := r.cl.HGetAll(ctx, pageKey(url)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get page %s: %w", url, err)
	}

	if len(fields) < 1 {
		return nil, common.ErrPageNotFound
	}

	status, err := strconv.Atoi(fields[fieldStatus])
	if err != nil {
		r.log.Error("Cannot convert status to int", slog.String("url", url), slog.Any("error", err))

		return nil, common.ErrPageNotFound
	}

	return &entity.FetchResult{
		URL:         fields[fieldURL],
		StatusCode:  status,
		ContentType: fields[fieldContentType],
		Body:        []byte(fields[fieldBody]),
	}, nil
}

func (r *pageRepository) Save(ctx context.Context, url string, res *entity.FetchResult) error {
	key := pageKey(url)

	pipe := r.cl.Pipeline()
	pipe.HSet(ctx, key,
		fieldBody, res.Body,
		fieldContentType, res.ContentType,
		fieldURL, res.URL,
		fieldStatus, res.StatusCode,
	)

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save page %s: %w", url, err)
	}

	return nil
}

func pageKey(url string) string {
	return getKey(KeyPage, util.GetIDFromString(&url))
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
