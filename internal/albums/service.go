// Package albums builds album grids from listening history and links their
// tiles to the streaming catalogue, caching both through the read-through store.
package albums

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"album-grid/internal/common/cache"
	"album-grid/internal/common/errors"
	"album-grid/internal/common/logging"
	"album-grid/internal/history"
	"album-grid/internal/streaming"
	"golang.org/x/sync/errgroup"
)

const (
	MinGridSize     = 1
	MaxGridSize     = 10
	DefaultGridSize = 3

	// linkConcurrency bounds parallel catalogue lookups for one grid
	linkConcurrency = 4
)

// Config holds cache lifetimes
type Config struct {
	TopAlbumsTTL         time.Duration
	TopAlbumsNegativeTTL time.Duration
	LinkTTL              time.Duration
	LinkNegativeTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopAlbumsTTL:         time.Hour,
		TopAlbumsNegativeTTL: 5 * time.Minute,
		LinkTTL:              7 * 24 * time.Hour,
		LinkNegativeTTL:      24 * time.Hour,
	}
}

// Tile is one cell of a grid, in row-major order
type Tile struct {
	Position  int    `json:"position"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	PlayCount int    `json:"playcount"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Grid is the input to a Compositor
type Grid struct {
	User   string         `json:"user"`
	Period history.Period `json:"period"`
	Size   int            `json:"size"`
	Tiles  []Tile         `json:"tiles"`
}

// Compositor renders a grid into an image. Rendering is provided elsewhere.
type Compositor interface {
	Compose(ctx context.Context, grid *Grid, w io.Writer) error
}

// Link pairs a grid tile with its catalogue entry. Album is nil when the
// catalogue has no match.
type Link struct {
	Position int              `json:"position"`
	Artist   string           `json:"artist"`
	Name     string           `json:"name"`
	Album    *streaming.Album `json:"album"`
}

// Service answers grid and link queries
type Service struct {
	store   cache.Store
	history history.Client
	config  Config
	logger  logging.Logger
}

func NewService(store cache.Store, hist history.Client, config Config) *Service {
	return &Service{
		store:   store,
		history: hist,
		config:  config,
		logger:  logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "albums"}),
	}
}

// TopAlbumsKey is the cache key of a chart
func TopAlbumsKey(user string, period history.Period, limit int) string {
	return cache.Key("lastfm", "topalbums", strings.ToLower(user), string(period), strconv.Itoa(limit))
}

// StreamingLinkKey is the cache key of a catalogue lookup
func StreamingLinkKey(artist, title string) string {
	return cache.Key("spotify", "album", normalize(artist), normalize(title))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TopAlbums returns the user's chart, or nil when the user does not exist.
// Unknown users are remembered for the negative TTL.
func (s *Service) TopAlbums(ctx context.Context, user string, period history.Period, limit int) (*history.TopAlbums, error) {
	return cache.Fetch(ctx, s.store, cache.Options[*history.TopAlbums]{
		Key: TopAlbumsKey(user, period, limit),
		Fetch: func(ctx context.Context) (*history.TopAlbums, error) {
			return s.history.TopAlbums(ctx, user, period, limit)
		},
		PositiveTTL: s.config.TopAlbumsTTL,
		NegativeTTL: s.config.TopAlbumsNegativeTTL,
	})
}

// Grid lays out the user's top size*size albums. A user with fewer albums
// gets a partially filled grid. It returns nil for an unknown user.
func (s *Service) Grid(ctx context.Context, user string, period history.Period, size int) (*Grid, error) {
	if size < MinGridSize || size > MaxGridSize {
		return nil, errors.ValidationError(fmt.Sprintf("size must be between %d and %d", MinGridSize, MaxGridSize))
	}

	top, err := s.TopAlbums(ctx, user, period, size*size)
	if err != nil {
		return nil, err
	}
	if top == nil {
		return nil, nil
	}

	grid := &Grid{
		User:   top.User,
		Period: period,
		Size:   size,
		Tiles:  make([]Tile, 0, len(top.Albums)),
	}
	for i, a := range top.Albums {
		if i >= size*size {
			break
		}
		grid.Tiles = append(grid.Tiles, Tile{
			Position:  i,
			Row:       i / size,
			Column:    i % size,
			Name:      a.Name,
			Artist:    a.Artist,
			PlayCount: a.PlayCount,
			ImageURL:  a.ImageURL,
		})
	}
	return grid, nil
}

// StreamingLink looks the album up in the catalogue. A miss is cached for
// the negative TTL and returned as nil.
func (s *Service) StreamingLink(ctx context.Context, client *streaming.Client, artist, title string) (*streaming.Album, error) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
		return nil, errors.ValidationError("artist and album are required")
	}
	return cache.Fetch(ctx, s.store, cache.Options[*streaming.Album]{
		Key: StreamingLinkKey(artist, title),
		Fetch: func(ctx context.Context) (*streaming.Album, error) {
			return client.SearchAlbum(ctx, artist, title)
		},
		PositiveTTL: s.config.LinkTTL,
		NegativeTTL: s.config.LinkNegativeTTL,
	})
}

// Links resolves every tile of grid. The first failure cancels the rest.
func (s *Service) Links(ctx context.Context, client *streaming.Client, grid *Grid) ([]Link, error) {
	links := make([]Link, len(grid.Tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(linkConcurrency)
	for i, tile := range grid.Tiles {
		links[i] = Link{Position: tile.Position, Artist: tile.Artist, Name: tile.Name}
		if strings.TrimSpace(tile.Artist) == "" || strings.TrimSpace(tile.Name) == "" {
			continue
		}
		i, tile := i, tile
		g.Go(func() error {
			album, err := s.StreamingLink(gctx, client, tile.Artist, tile.Name)
			if err != nil {
				return err
			}
			links[i].Album = album
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return links, nil
}
