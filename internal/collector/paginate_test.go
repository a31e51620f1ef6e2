package collector

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v55/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitpeek/internal/logging"
)

func okResponse() *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: http.StatusOK}}
}

func errorResponse(code int) (*github.Response, error) {
	httpResp := &http.Response{StatusCode: code, Request: &http.Request{}}
	return &github.Response{Response: httpResp}, &github.ErrorResponse{Response: httpResp, Message: http.StatusText(code)}
}

// pagesOf serves fixed pages and records every page number requested
func pagesOf(pages [][]int, requested *[]int) PageFunc[int] {
	return func(ctx context.Context, opts github.ListOptions) ([]int, *github.Response, error) {
		*requested = append(*requested, opts.Page)
		if opts.Page > len(pages) {
			return nil, okResponse(), nil
		}
		return pages[opts.Page-1], okResponse(), nil
	}
}

func testPageOptions(size int) PageOptions {
	return PageOptions{PageSize: size, Logger: logging.Discard(), Resource: "test"}
}

func TestFetchAll_StopsOnShortPage(t *testing.T) {
	var requested []int
	items, err := FetchAll(context.Background(), testPageOptions(3), pagesOf([][]int{{1, 2, 3}, {4, 5, 6}, {7}}, &requested))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, items)
	assert.Equal(t, []int{1, 2, 3}, requested)
}

func TestFetchAll_FullLastPageCostsOneEmptyRequest(t *testing.T) {
	var requested []int
	items, err := FetchAll(context.Background(), testPageOptions(2), pagesOf([][]int{{1, 2}, {3, 4}}, &requested))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, items)
	assert.Equal(t, []int{1, 2, 3}, requested)
}

func TestFetchAll_TerminalStatusesAreEmptyResults(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusConflict} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			fetch := func(ctx context.Context, opts github.ListOptions) ([]int, *github.Response, error) {
				if opts.Page == 1 {
					return []int{1, 2}, okResponse(), nil
				}
				resp, err := errorResponse(code)
				return nil, resp, err
			}

			items, err := FetchAll(context.Background(), testPageOptions(2), fetch)

			require.NoError(t, err)
			assert.Equal(t, []int{1, 2}, items)
		})
	}
}

func TestFetchAll_TransportFailureReturnsPartialResults(t *testing.T) {
	fetch := func(ctx context.Context, opts github.ListOptions) ([]int, *github.Response, error) {
		if opts.Page == 1 {
			return []int{1, 2}, okResponse(), nil
		}
		return nil, nil, errors.New("dial tcp: connection refused")
	}

	items, err := FetchAll(context.Background(), testPageOptions(2), fetch)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
}

func TestFetchAll_OtherStatusIsHardFailure(t *testing.T) {
	fetch := func(ctx context.Context, opts github.ListOptions) ([]int, *github.Response, error) {
		resp, err := errorResponse(http.StatusInternalServerError)
		return nil, resp, err
	}

	_, err := FetchAll(context.Background(), testPageOptions(2), fetch)

	var ghErr *github.ErrorResponse
	require.ErrorAs(t, err, &ghErr)
	assert.Equal(t, http.StatusInternalServerError, ghErr.Response.StatusCode)
}

func TestFetchAll_CancelledContextIsHardFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(ctx context.Context, opts github.ListOptions) ([]int, *github.Response, error) {
		cancel()
		return nil, nil, ctx.Err()
	}

	_, err := FetchAll(ctx, testPageOptions(2), fetch)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchAll_MaxPages(t *testing.T) {
	var requested []int
	opts := testPageOptions(1)
	opts.MaxPages = 2

	items, err := FetchAll(context.Background(), opts, pagesOf([][]int{{1}, {2}, {3}}, &requested))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
	assert.Equal(t, []int{1, 2}, requested)
}

func TestPaginate_IsLazy(t *testing.T) {
	var requested []int
	seq := Paginate(context.Background(), testPageOptions(2), pagesOf([][]int{{1, 2}, {3, 4}, {5}}, &requested))

	assert.Empty(t, requested)

	for item, err := range seq {
		require.NoError(t, err)
		if item == 2 {
			break
		}
	}
	assert.Equal(t, []int{1}, requested)
}
