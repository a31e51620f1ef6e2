package collector

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v55/github"
)

const defaultPageSize = 100

// PageFunc fetches one page of a remote collection
type PageFunc[T any] func(ctx context.Context, opts github.ListOptions) ([]T, *github.Response, error)

// PageOptions controls a paginated walk
type PageOptions struct {
	PageSize int
	MaxPages int // 0 means unbounded
	Limiter  RateLimiter
	Logger   *slog.Logger
	Resource string
}

// Paginate walks a page-numbered collection starting at page 1.
//
// The walk ends after a page shorter than PageSize, on a 404 or 409 response
// (treated as an empty remainder) and on a transport failure, which is logged
// and ends the sequence with whatever was already yielded. Any other error,
// including context cancellation, is yielded once and ends the sequence.
// Each call walks from page 1 again.
func Paginate[T any](ctx context.Context, opts PageOptions, fetch PageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		pageSize := opts.PageSize
		if pageSize <= 0 {
			pageSize = defaultPageSize
		}
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}

		for page := 1; opts.MaxPages == 0 || page <= opts.MaxPages; page++ {
			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(ctx); err != nil {
					yield(zero, err)
					return
				}
			}

			items, resp, err := fetch(ctx, github.ListOptions{Page: page, PerPage: pageSize})
			if opts.Limiter != nil {
				updateRateLimit(opts.Limiter, resp)
			}

			if err != nil {
				switch {
				case ctx.Err() != nil:
					yield(zero, ctx.Err())
				case isTerminalStatus(statusCode(resp, err)):
					logger.Debug("collection ended by status",
						"resource", opts.Resource, "page", page, "status", statusCode(resp, err))
				case isTransportError(resp, err):
					logger.Warn("transport failure, returning partial results",
						"resource", opts.Resource, "page", page, "error", err)
				default:
					yield(zero, err)
				}
				return
			}

			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}

			if len(items) < pageSize {
				return
			}
		}

		logger.Warn("page limit reached", "resource", opts.Resource, "max_pages", opts.MaxPages)
	}
}

// FetchAll collects every item of Paginate. On error the items fetched so far
// are returned alongside it.
func FetchAll[T any](ctx context.Context, opts PageOptions, fetch PageFunc[T]) ([]T, error) {
	var all []T
	for item, err := range Paginate(ctx, opts, fetch) {
		if err != nil {
			return all, err
		}
		all = append(all, item)
	}
	return all, nil
}

func isTerminalStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusConflict
}

// statusCode returns the HTTP status behind a go-github result, or 0 when no
// response was received.
func statusCode(resp *github.Response, err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

func isTransportError(resp *github.Response, err error) bool {
	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &errResp) || errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return false
	}
	return resp == nil || resp.Response == nil
}

// updateRateLimit feeds the limiter from the rate headers of a response
func updateRateLimit(limiter RateLimiter, resp *github.Response) {
	if resp != nil && resp.Rate.Limit > 0 {
		limiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
