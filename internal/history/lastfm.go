package history

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

	"album-grid/internal/circuitbreaker"
	"album-grid/internal/common/errors"
	commonhttp "album-grid/internal/common/http"
	"album-grid/internal/common/logging"
)

const (
	DefaultLastFMURL = "https://ws.audioscrobbler.com/2.0/"

	// MaxLimit is the largest page Last.fm serves for user.gettopalbums
	MaxLimit = 1000

	errCodeUserNotFound = 6
)

// LastFMConfig configures the Last.fm client
type LastFMConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LastFM implements Client against the Last.fm 2.0 JSON API
type LastFM struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.GoBreakerAdapter
	logger     logging.Logger
}

func NewLastFM(cfg LastFMConfig) *LastFM {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLastFMURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	logger := logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "lastfm"})
	return &LastFM{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: commonhttp.NewHTTPClientWithTimeout(cfg.Timeout),
		breaker:    circuitbreaker.NewGoBreaker("lastfm", circuitbreaker.APIConfig, logger),
		logger:     logger,
	}
}

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

type topAlbumsResponse struct {
	TopAlbums struct {
		// a single album may be sent as an object instead of an array
		Album json.RawMessage `json:"album"`
		Attr  struct {
			User string `json:"user"`
		} `json:"@attr"`
	} `json:"topalbums"`
}

type albumEntry struct {
	Name      string `json:"name"`
	PlayCount string `json:"playcount"`
	MBID      string `json:"mbid"`
	URL       string `json:"url"`
	Artist    struct {
		Name string `json:"name"`
	} `json:"artist"`
	Image []struct {
		URL  string `json:"#text"`
		Size string `json:"size"`
	} `json:"image"`
	Attr struct {
		Rank string `json:"rank"`
	} `json:"@attr"`
}

func (e albumEntry) toAlbum(position int) Album {
	rank, err := strconv.Atoi(e.Attr.Rank)
	if err != nil || rank <= 0 {
		rank = position
	}
	plays, _ := strconv.Atoi(e.PlayCount)
	return Album{
		Rank:      rank,
		Name:      e.Name,
		Artist:    e.Artist.Name,
		PlayCount: plays,
		URL:       e.URL,
		MBID:      e.MBID,
		ImageURL:  e.bestImage(),
	}
}

// bestImage prefers extralarge, falling back to the last non-empty size
func (e albumEntry) bestImage() string {
	best := ""
	for _, img := range e.Image {
		if img.URL == "" {
			continue
		}
		if img.Size == "extralarge" {
			return img.URL
		}
		best = img.URL
	}
	return best
}

// TopAlbums fetches user.gettopalbums
func (c *LastFM) TopAlbums(ctx context.Context, user string, period Period, limit int) (*TopAlbums, error) {
	if user == "" {
		return nil, errors.ValidationError("user is required")
	}
	if limit <= 0 || limit > MaxLimit {
		return nil, errors.ValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}
	if period == "" {
		period = DefaultPeriod
	}

	q := url.Values{}
	q.Set("method", "user.gettopalbums")
	q.Set("user", user)
	q.Set("period", string(period))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")

	var body []byte
	var notFound bool
	err := c.breaker.Execute(ctx, func() error {
		var reqErr error
		body, notFound, reqErr = c.get(ctx, q)
		return reqErr
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		c.logger.Debug("Last.fm user not found", logging.Field{Key: "user", Value: user})
		return nil, nil
	}

	var resp topAlbumsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.UpstreamError("failed to decode Last.fm response", err)
	}

	entries, err := decodeEntries(resp.TopAlbums.Album)
	if err != nil {
		return nil, errors.UpstreamError("failed to decode Last.fm albums", err)
	}

	result := &TopAlbums{
		User:   user,
		Period: period,
		Albums: make([]Album, 0, len(entries)),
	}
	if resp.TopAlbums.Attr.User != "" {
		result.User = resp.TopAlbums.Attr.User
	}
	for i, e := range entries {
		result.Albums = append(result.Albums, e.toAlbum(i+1))
	}
	return result, nil
}

// get returns the body of a successful call, or notFound for error 6.
// Last.fm reports API errors in the body, sometimes with a 200 status.
func (c *LastFM) get(ctx context.Context, q url.Values) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, errors.TimeoutError("Last.fm request", err)
		}
		return nil, false, errors.ConnectionError("Last.fm request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, false, errors.ConnectionError("failed to read Last.fm response", err)
	}

	var apiErr apiError
	if bytes.Contains(body, []byte(`"error"`)) && json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		if apiErr.Code == errCodeUserNotFound {
			return nil, true, nil
		}
		return nil, false, errors.UpstreamError(fmt.Sprintf("Last.fm error %d: %s", apiErr.Code, apiErr.Message), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.UpstreamError(fmt.Sprintf("Last.fm returned status %d", resp.StatusCode), nil)
	}
	return body, false, nil
}

func decodeEntries(raw json.RawMessage) ([]albumEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var single albumEntry
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		return []albumEntry{single}, nil
	}
	var list []albumEntry
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
