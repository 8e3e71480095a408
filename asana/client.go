package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/taskbridge/go-asana-broker/ratelimit"
)

const (
	defaultPageLimit = 100
	maxBatchTasks    = 25
)

// APIError is a non-2xx response from the Asana API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana api error (status %d): %s", e.StatusCode, e.Message)
}

// Client is a thin wrapper over the Asana REST API bound to one access
// token. Every outbound call passes through the shared rate limiter before
// touching the network, regardless of which session it serves.
type Client struct {
	baseURL     string
	accessToken string
	limiter     *ratelimit.Limiter
	httpClient  *http.Client
}

// NewClient binds an access token to the API. The limiter is shared across
// all clients; construction per tool call is cheap because connection
// pooling lives in the default transport.
func NewClient(baseURL, accessToken string, limiter *ratelimit.Limiter) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		limiter:     limiter,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs one API call: rate-limit gate, bearer auth, one retry on
// 429 honoring Retry-After, typed errors for everything else.
func (c *Client) request(ctx context.Context, method, path string, params url.Values, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, method, path, params, body, true)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body interface{}, retryOnRateLimit bool) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, errors.Wrap(err, "[Client.do] rate limiter")
		}
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(map[string]interface{}{"data": body})
		if err != nil {
			return nil, errors.Wrap(err, "[Client.do] marshal body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.do] build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.do] %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if retryOnRateLimit {
			log.Warn().Dur("retry_after", retryAfter).Str("path", path).Msg("asana rate limited, backing off")
			timer := time.NewTimer(retryAfter)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
			return c.do(ctx, method, path, params, body, false)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("rate limit exceeded, retry after %s", retryAfter)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.do] read body")
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}

	return raw, nil
}

func parseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return time.Minute
	}
	return time.Duration(secs) * time.Second
}

func apiErrorMessage(raw []byte) string {
	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		return body.Errors[0].Message
	}
	return string(raw)
}

func decodeJSON(resp *http.Response, v interface{}) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

// getOne fetches a single object endpoint and decodes its data envelope.
func getOne[T any](ctx context.Context, c *Client, path string, params url.Values) (T, error) {
	var out struct {
		Data T `json:"data"`
	}
	raw, err := c.request(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return out.Data, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out.Data, errors.Wrapf(err, "[getOne] decode %s", path)
	}
	return out.Data, nil
}

// mutate issues a write and decodes the returned object.
func mutate[T any](ctx context.Context, c *Client, method, path string, body interface{}) (T, error) {
	var out struct {
		Data T `json:"data"`
	}
	raw, err := c.request(ctx, method, path, nil, body)
	if err != nil {
		return out.Data, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return out.Data, errors.Wrapf(err, "[mutate] decode %s", path)
		}
	}
	return out.Data, nil
}

// getPaginated walks an offset-paginated collection endpoint until
// exhaustion or maxResults.
func getPaginated[T any](ctx context.Context, c *Client, path string, params url.Values, maxResults int) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(defaultPageLimit))

	var results []T
	for {
		raw, err := c.request(ctx, http.MethodGet, path, params, nil)
		if err != nil {
			return nil, err
		}

		var page struct {
			Data     []T `json:"data"`
			NextPage *struct {
				Offset string `json:"offset"`
			} `json:"next_page"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, errors.Wrapf(err, "[getPaginated] decode %s", path)
		}
		results = append(results, page.Data...)

		if maxResults > 0 && len(results) >= maxResults {
			return results[:maxResults], nil
		}
		if page.NextPage == nil || page.NextPage.Offset == "" {
			return results, nil
		}
		params.Set("offset", page.NextPage.Offset)
	}
}
