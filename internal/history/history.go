// Package history reads a user's listening history from Last.fm.
package history

import (
	"context"
	"fmt"
	"strings"
)

// Period is a Last.fm chart range
type Period string

const (
	PeriodOverall Period = "overall"
	Period7Day    Period = "7day"
	Period1Month  Period = "1month"
	Period3Month  Period = "3month"
	Period6Month  Period = "6month"
	Period12Month Period = "12month"
)

const DefaultPeriod = PeriodOverall

var periods = []Period{PeriodOverall, Period7Day, Period1Month, Period3Month, Period6Month, Period12Month}

// ParsePeriod accepts the canonical names. An empty string means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return DefaultPeriod, nil
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Album is one entry of a top-albums chart
type Album struct {
	Rank      int    `json:"rank"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	PlayCount int    `json:"playcount"`
	URL       string `json:"url,omitempty"`
	MBID      string `json:"mbid,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// TopAlbums is a user's chart for one period
type TopAlbums struct {
	User   string  `json:"user"`
	Period Period  `json:"period"`
	Albums []Album `json:"albums"`
}

// Client reads listening charts. TopAlbums returns nil with no error when the
// user does not exist.
type Client interface {
	TopAlbums(ctx context.Context, user string, period Period, limit int) (*TopAlbums, error)
}
