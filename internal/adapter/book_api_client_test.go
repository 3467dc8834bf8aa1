//go:build unit

package adapter

import (
	"book-client/internal/core/model"
	"book-client/internal/testutil"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string, retry int) *BookAPIClient {
	t.Helper()
	c := NewBookAPIClient(baseURL, retry, http.DefaultClient, nil)
	c.Backoff = time.Millisecond
	return c
}

func TestGetBooks_ReturnsBody(t *testing.T) {
	svc := testutil.NewBookService(testutil.Gatsby, testutil.Orwell)
	c := newClient(t, testutil.NewServer(t, svc), 0)

	data, err := c.GetBooks(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"isbn":"978-0-452-28423-4","title":"1984","author":"George Orwell"},
		{"isbn":"978-0-7432-7356-5","title":"The Great Gatsby","author":"F. Scott Fitzgerald"}
	]`, string(data))
	assert.Equal(t, []string{"/api/books"}, svc.Calls())
}

func TestGetByISBN_ExactArray(t *testing.T) {
	const body = `[{"isbn":"978-0-7432-7356-5","title":"The Great Gatsby"}]`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/books/isbn/978-0-7432-7356-5" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := newClient(t, ts.URL+"/api", 0)
	data, err := c.GetByISBN(context.Background(), "978-0-7432-7356-5")
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestGetByISBN_404(t *testing.T) {
	svc := testutil.NewBookService(testutil.Gatsby)
	c := newClient(t, testutil.NewServer(t, svc), 3)

	data, err := c.GetByISBN(context.Background(), "000")
	require.Error(t, err)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, model.ErrNotFound)

	var rerr *model.RequestError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "getByISBN", rerr.Op)
	assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
	// 404 is final
	assert.Len(t, svc.Calls(), 1)
}

func TestGetByISBN_NotEncoded(t *testing.T) {
	svc := testutil.NewBookService()
	c := newClient(t, testutil.NewServer(t, svc), 0)

	_, _ = c.GetByISBN(context.Background(), "isbn,1")
	assert.Equal(t, []string{"/api/books/isbn/isbn,1"}, svc.Calls())
}

func TestGetByAuthor_Encoded(t *testing.T) {
	svc := testutil.NewBookService(testutil.Gatsby, testutil.Orwell)
	c := newClient(t, testutil.NewServer(t, svc), 0)

	data, err := c.GetByAuthor(context.Background(), "F. Scott Fitzgerald")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"isbn":"978-0-7432-7356-5","title":"The Great Gatsby","author":"F. Scott Fitzgerald"}]`, string(data))
	assert.Equal(t, []string{"/api/books/author/F.%20Scott%20Fitzgerald"}, svc.Calls())
}

func TestGetByTitle_Encoded(t *testing.T) {
	svc := testutil.NewBookService(testutil.Harper)
	c := newClient(t, testutil.NewServer(t, svc), 0)

	data, err := c.GetByTitle(context.Background(), "To Kill a Mockingbird")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Harper Lee")
	assert.Equal(t, []string{"/api/books/title/To%20Kill%20a%20Mockingbird"}, svc.Calls())
}

func TestGetByTitle_EmptyResultIsNotAnError(t *testing.T) {
	svc := testutil.NewBookService(testutil.Gatsby)
	c := newClient(t, testutil.NewServer(t, svc), 0)

	data, err := c.GetByTitle(context.Background(), "1984")
	require.NoError(t, err)
	assert.True(t, model.IsEmpty(data))
}

func TestRetry_5xxThenSuccess(t *testing.T) {
	svc := testutil.NewBookService(testutil.Orwell)
	svc.Fail(http.StatusServiceUnavailable, 2)
	c := newClient(t, testutil.NewServer(t, svc), 2)

	data, err := c.GetBooks(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "George Orwell")
	assert.Len(t, svc.Calls(), 3)
}

func TestRetry_Exhausted(t *testing.T) {
	svc := testutil.NewBookService()
	svc.Fail(http.StatusInternalServerError, 10)
	c := newClient(t, testutil.NewServer(t, svc), 1)

	data, err := c.GetBooks(context.Background())
	require.Error(t, err)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, model.ErrUpstream)
	assert.Len(t, svc.Calls(), 2)
}

func TestClientError_NotRetried(t *testing.T) {
	svc := testutil.NewBookService()
	svc.Fail(http.StatusBadRequest, 10)
	c := newClient(t, testutil.NewServer(t, svc), 3)

	_, err := c.GetByAuthor(context.Background(), "x")
	assert.ErrorIs(t, err, model.ErrUpstream)
	assert.Len(t, svc.Calls(), 1)
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL + "/api"
	ts.Close()

	c := newClient(t, base, 1)
	data, err := c.GetBooks(context.Background())
	require.Error(t, err)
	assert.Nil(t, data)

	var rerr *model.RequestError
	require.True(t, errors.As(err, &rerr))
	assert.Zero(t, rerr.StatusCode)
}

func TestInvalidJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer ts.Close()

	c := newClient(t, ts.URL, 2)
	_, err := c.GetBooks(context.Background())
	assert.ErrorIs(t, err, model.ErrInvalidBody)
}

func TestRequestHeaders(t *testing.T) {
	var seen atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Clone())
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := newClient(t, ts.URL, 0)
	_, err := c.GetBooks(context.Background())
	require.NoError(t, err)

	h := seen.Load().(http.Header)
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, h.Get("User-Agent"))
	assert.Len(t, h.Get(RequestIDHeader), 36)
}

func TestCancelledContext(t *testing.T) {
	svc := testutil.NewBookService()
	c := newClient(t, testutil.NewServer(t, svc), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetBooks(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var rerr *model.RequestError
	assert.True(t, errors.As(err, &rerr))
}

func TestNewBookAPIClient_Defaults(t *testing.T) {
	c := NewBookAPIClient("", -1, nil, nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, 0, c.Retry)
	assert.NotNil(t, c.Client)

	c = NewBookAPIClient("http://example.test/api/", 1, nil, nil)
	assert.True(t, strings.HasSuffix(c.BaseURL, "/api"))
}
