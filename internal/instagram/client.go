package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const mediaFields = "id,username,like_count,permalink,media_url,media_type,timestamp"

var ErrNotConfigured = errors.New("instagram credentials are not configured")

// Media is one post in which the contest account was tagged.
type Media struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	LikeCount *int   `json:"like_count"`
	Permalink string `json:"permalink"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
	Timestamp string `json:"timestamp"`
}

type Credentials struct {
	AccessToken string
	AccountID   string
}

// CredentialSource resolves the Graph API credentials at call time so that values
// changed by an administrator apply without a restart.
type CredentialSource func(ctx context.Context) (Credentials, error)

type Client struct {
	baseURL     string
	limit       int
	httpClient  *http.Client
	credentials CredentialSource
	limiter     *rate.Limiter
}

func NewClient(baseURL string, limit int, timeout time.Duration, credentials CredentialSource) *Client {
	if limit <= 0 {
		limit = 50
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		limit:       limit,
		httpClient:  &http.Client{Timeout: timeout},
		credentials: credentials,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
}

// WithRateLimit paces Graph API page requests to perSecond with the given burst.
// A non-positive rate leaves requests unthrottled.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

type mediaPage struct {
	Data   []Media `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// TaggedMedia returns at most the configured number of tagged posts, most recent first,
// following pagination until the bound is reached.
func (c *Client) TaggedMedia(ctx context.Context) ([]Media, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.AccessToken == "" || creds.AccountID == "" {
		return nil, ErrNotConfigured
	}

	query := url.Values{}
	query.Set("fields", mediaFields)
	query.Set("limit", strconv.Itoa(c.limit))
	query.Set("access_token", creds.AccessToken)
	next := fmt.Sprintf("%s/%s/tags?%s", c.baseURL, url.PathEscape(creds.AccountID), query.Encode())

	media := make([]Media, 0, c.limit)
	for next != "" && len(media) < c.limit {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		media = append(media, page.Data...)
		next = page.Paging.Next
	}
	if len(media) > c.limit {
		media = media[:c.limit]
	}
	return media, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*mediaPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build tagged media request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tagged media: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read tagged media: %w", err)
	}

	var page mediaPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode tagged media (status %d): %w", resp.StatusCode, err)
	}
	if page.Error != nil {
		return nil, fmt.Errorf("graph api error %d (%s): %s", page.Error.Code, page.Error.Type, page.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("graph api status %d", resp.StatusCode)
	}
	return &page, nil
}

// NormalizeHandle lower-cases a handle and strips surrounding spaces and a leading "@".
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(strings.TrimSpace(handle))
}
