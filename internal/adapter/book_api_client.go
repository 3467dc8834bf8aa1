package adapter

import (
	"book-client/internal/core/model"
	"book-client/pkg/http_client"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultBaseURL   = "http://localhost:5000/api"
	DefaultBackoff   = 150 * time.Millisecond
	DefaultUserAgent = "book-client/1.0"

	RequestIDHeader = "X-Request-ID"

	maxBodySize = 10 << 20
)

// BookAPIClient queries the book management REST service.
type BookAPIClient struct {
	BaseURL   string
	Client    *http.Client
	Retry     int
	Backoff   time.Duration
	UserAgent string
	log       *slog.Logger
}

func NewBookAPIClient(baseURL string, retry int, httpClient *http.Client, logger *slog.Logger) *BookAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retry < 0 {
		retry = 0
	}
	if httpClient == nil {
		httpClient = http_client.CreateHTTPClient(0)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BookAPIClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    httpClient,
		Retry:     retry,
		Backoff:   DefaultBackoff,
		UserAgent: DefaultUserAgent,
		log:       logger,
	}
}

func (c *BookAPIClient) GetBooks(ctx context.Context) (model.BookData, error) {
	c.log.InfoContext(ctx, "getting all books")
	return c.query(ctx, "getBooks", c.BaseURL+"/books")
}

// GetByISBN inserts isbn into the path as is.
func (c *BookAPIClient) GetByISBN(ctx context.Context, isbn string) (model.BookData, error) {
	c.log.InfoContext(ctx, "getting book by ISBN", "isbn", isbn)
	return c.query(ctx, "getByISBN", c.BaseURL+"/books/isbn/"+isbn)
}

func (c *BookAPIClient) GetByAuthor(ctx context.Context, author string) (model.BookData, error) {
	c.log.InfoContext(ctx, "getting books by author", "author", author)
	return c.queryByParam(ctx, "getByAuthor", "author", author)
}

func (c *BookAPIClient) GetByTitle(ctx context.Context, title string) (model.BookData, error) {
	c.log.InfoContext(ctx, "getting books by title", "title", title)
	return c.queryByParam(ctx, "getByTitle", "title", title)
}

func (c *BookAPIClient) queryByParam(ctx context.Context, op, param, value string) (model.BookData, error) {
	seg, err := runtime.StyleParamWithLocation("simple", false, param, runtime.ParamLocationPath, value)
	if err != nil {
		rerr := &model.RequestError{Op: op, URL: c.BaseURL + "/books/" + param, Err: err}
		c.log.ErrorContext(ctx, "request failed", "op", op, "error", rerr.Error())
		return nil, rerr
	}
	return c.query(ctx, op, c.BaseURL+"/books/"+param+"/"+seg)
}

// query runs fetchOnce under the retry policy. 404 and other 4xx are final;
// transport errors, 429 and 5xx are retried up to c.Retry times.
func (c *BookAPIClient) query(ctx context.Context, op, url string) (model.BookData, error) {
	base := c.Backoff
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.WithMaxRetries(uint64(c.Retry), retry.NewExponential(base))

	var (
		data    model.BookData
		attempt int
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		d, retryable, err := c.fetchOnce(ctx, op, url, attempt)
		if err != nil {
			if retryable {
				c.log.WarnContext(ctx, "request attempt failed", "op", op, "url", url, "attempt", attempt, "error", err.Error())
				return retry.RetryableError(err)
			}
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		var rerr *model.RequestError
		if !errors.As(err, &rerr) {
			// context cancelled between attempts
			rerr = &model.RequestError{Op: op, URL: url, Err: err}
		}
		c.log.ErrorContext(ctx, "request failed", "op", op, "url", url, "attempts", attempt, "error", rerr.Error())
		return nil, rerr
	}

	c.log.InfoContext(ctx, "request succeeded", "op", op, "url", url, "attempts", attempt, "bytes", len(data))
	return data, nil
}

func (c *BookAPIClient) fetchOnce(ctx context.Context, op, url string, attempt int) (model.BookData, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &model.RequestError{Op: op, URL: url, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set(RequestIDHeader, reqID)

	c.log.DebugContext(ctx, "sending request", "op", op, "url", url, "request_id", reqID, "attempt", attempt)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, &model.RequestError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, &model.RequestError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: model.ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, &model.RequestError{
			Op:         op,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", model.ErrUpstream, strings.TrimSpace(string(b))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, ctx.Err() == nil, &model.RequestError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if !json.Valid(body) {
		return nil, false, &model.RequestError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: model.ErrInvalidBody}
	}

	c.log.DebugContext(ctx, "response received", "op", op, "request_id", reqID, "status", resp.StatusCode)
	return model.BookData(body), false, nil
}
