package streaming

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Album is the subset of an API album object the grid needs.
type Album struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	URL      string `json:"url"`
	URI      string `json:"uri"`
	ImageURL string `json:"image_url,omitempty"`
}

type searchResponse struct {
	Albums struct {
		Items []albumObject `json:"items"`
	} `json:"albums"`
}

type albumObject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URI          string `json:"uri"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Images []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
}

func (o albumObject) toAlbum() *Album {
	a := &Album{
		ID:   o.ID,
		Name: o.Name,
		URI:  o.URI,
		URL:  o.ExternalURLs.Spotify,
	}
	if len(o.Artists) > 0 {
		a.Artist = o.Artists[0].Name
	}
	// images are ordered widest first
	if len(o.Images) > 0 {
		a.ImageURL = o.Images[0].URL
	}
	return a
}

// SearchQuery builds the field-filtered query string for an album lookup.
func SearchQuery(artist, title string) string {
	return fmt.Sprintf("album:%s artist:%s", quoteField(title), quoteField(artist))
}

func quoteField(v string) string {
	v = strings.TrimSpace(strings.ReplaceAll(v, `"`, ""))
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}

// SearchAlbum returns the best match for artist and title, or nil when the
// catalogue has nothing. A missing album is not an error.
func (c *Client) SearchAlbum(ctx context.Context, artist, title string) (*Album, error) {
	query := url.Values{}
	query.Set("q", SearchQuery(artist, title))
	query.Set("type", "album")
	query.Set("limit", "1")

	var resp searchResponse
	if err := c.Get(ctx, "search", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Albums.Items) == 0 {
		return nil, nil
	}
	return resp.Albums.Items[0].toAlbum(), nil
}

// User is the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country,omitempty"`
}

// CurrentUser fetches the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.Get(ctx, "me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
