package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"album-grid/internal/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topAlbumsBody = `{
  "topalbums": {
    "album": [
      {
        "artist": {"url": "https://www.last.fm/music/Radiohead", "name": "Radiohead", "mbid": ""},
        "image": [
          {"size": "small", "#text": "https://img/34s.png"},
          {"size": "medium", "#text": "https://img/64s.png"},
          {"size": "large", "#text": "https://img/174s.png"},
          {"size": "extralarge", "#text": "https://img/300x300.png"}
        ],
        "mbid": "b8048f24",
        "url": "https://www.last.fm/music/Radiohead/OK+Computer",
        "playcount": "412",
        "@attr": {"rank": "1"},
        "name": "OK Computer"
      },
      {
        "artist": {"name": "Björk"},
        "image": [
          {"size": "small", "#text": "https://img/h34s.png"},
          {"size": "extralarge", "#text": ""}
        ],
        "playcount": "97",
        "@attr": {"rank": "2"},
        "name": "Homogenic"
      }
    ],
    "@attr": {"user": "RJ", "totalPages": "1", "page": "1", "perPage": "2", "total": "2"}
  }
}`

func newTestLastFM(t *testing.T, handler http.HandlerFunc) *LastFM {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLastFM(LastFMConfig{APIKey: "key", BaseURL: server.URL + "/2.0/"})
}

func TestLastFM_TopAlbums(t *testing.T) {
	client := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "user.gettopalbums", q.Get("method"))
		assert.Equal(t, "rj", q.Get("user"))
		assert.Equal(t, "7day", q.Get("period"))
		assert.Equal(t, "2", q.Get("limit"))
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("format"))
		_, _ = w.Write([]byte(topAlbumsBody))
	})

	top, err := client.TopAlbums(context.Background(), "rj", Period7Day, 2)
	require.NoError(t, err)
	require.NotNil(t, top)

	assert.Equal(t, "RJ", top.User)
	assert.Equal(t, Period7Day, top.Period)
	require.Len(t, top.Albums, 2)

	assert.Equal(t, Album{
		Rank:      1,
		Name:      "OK Computer",
		Artist:    "Radiohead",
		PlayCount: 412,
		URL:       "https://www.last.fm/music/Radiohead/OK+Computer",
		MBID:      "b8048f24",
		ImageURL:  "https://img/300x300.png",
	}, top.Albums[0])

	assert.Equal(t, "Björk", top.Albums[1].Artist)
	assert.Equal(t, "https://img/h34s.png", top.Albums[1].ImageURL)
}

func TestLastFM_SingleAlbumObject(t *testing.T) {
	client := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"topalbums":{"album":{"name":"Solo","playcount":"3","artist":{"name":"One"}},"@attr":{"user":"u"}}}`))
	})

	top, err := client.TopAlbums(context.Background(), "u", PeriodOverall, 1)
	require.NoError(t, err)
	require.Len(t, top.Albums, 1)
	assert.Equal(t, 1, top.Albums[0].Rank)
	assert.Equal(t, "Solo", top.Albums[0].Name)
}

func TestLastFM_EmptyChart(t *testing.T) {
	client := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"topalbums":{"album":[],"@attr":{"user":"quiet"}}}`))
	})

	top, err := client.TopAlbums(context.Background(), "quiet", PeriodOverall, 9)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Empty(t, top.Albums)
}

func TestLastFM_UserNotFound(t *testing.T) {
	client := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":6,"message":"User not found","links":[]}`))
	})

	top, err := client.TopAlbums(context.Background(), "ghost", PeriodOverall, 9)
	assert.NoError(t, err)
	assert.Nil(t, top)
}

func TestLastFM_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"invalid api key", http.StatusForbidden, `{"error":10,"message":"Invalid API key"}`},
		{"error in 200", http.StatusOK, `{"error":29,"message":"Rate limit exceeded"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"malformed", http.StatusOK, `{"topalbums":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			top, err := client.TopAlbums(context.Background(), "u", PeriodOverall, 9)
			assert.Nil(t, top)
			assert.True(t, errors.IsType(err, errors.ErrTypeUpstream), "got %v", err)
		})
	}
}

func TestLastFM_Validation(t *testing.T) {
	client := NewLastFM(LastFMConfig{APIKey: "key"})

	_, err := client.TopAlbums(context.Background(), "", PeriodOverall, 9)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.TopAlbums(context.Background(), "u", PeriodOverall, 0)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.TopAlbums(context.Background(), "u", PeriodOverall, MaxLimit+1)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodOverall, false},
		{"overall", PeriodOverall, false},
		{"7DAY", Period7Day, false},
		{" 12month ", Period12Month, false},
		{"1week", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
