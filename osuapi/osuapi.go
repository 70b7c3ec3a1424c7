// Package osuapi fetches beatmap and user data from the osu! web API (v2).
// Authentication is a caller concern; every request takes a bearer token
// obtained elsewhere, such as the oauth package.
package osuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://osu.ppy.sh/api/v2"

// ErrNotFound is returned when the API reports 404 for the requested
// resource.
var ErrNotFound = errors.New("osuapi: not found")

// Client makes osu! API requests. The zero value is usable.
type Client struct {
	// BaseURL overrides the API endpoint; empty means DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the transport; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Beatmap is the subset of the API's beatmap resource the application uses.
type Beatmap struct {
	ID               int64
	BeatmapsetID     int64
	Artist           string
	Title            string
	Difficulty       string
	Mapper           string
	Mode             int
	TotalLength      int
	BPM              float64
	DifficultyRating float64
}

// User is the subset of the API's user resource the application uses.
type User struct {
	ID          int64
	Username    string
	AvatarURL   string
	Country     string
	PP          float64
	Rank        *int64
	CountryRank *int64
	Accuracy    float64
}

type beatmapResponse struct {
	ID               int64   `json:"id"`
	BeatmapsetID     int64   `json:"beatmapset_id"`
	Version          string  `json:"version"`
	ModeInt          int     `json:"mode_int"`
	TotalLength      int     `json:"total_length"`
	BPM              float64 `json:"bpm"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Beatmapset       struct {
		Artist  string `json:"artist"`
		Title   string `json:"title"`
		Creator string `json:"creator"`
	} `json:"beatmapset"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	CountryCode string `json:"country_code"`
	Statistics  struct {
		PP          float64 `json:"pp"`
		GlobalRank  *int64  `json:"global_rank"`
		CountryRank *int64  `json:"country_rank"`
		HitAccuracy float64 `json:"hit_accuracy"`
	} `json:"statistics"`
}

// Beatmap fetches one beatmap by id.
func (c *Client) Beatmap(ctx context.Context, id int64, token string) (Beatmap, error) {
	var resp beatmapResponse
	if err := c.get(ctx, fmt.Sprintf("/beatmaps/%d", id), token, &resp); err != nil {
		return Beatmap{}, err
	}
	return Beatmap{
		ID:               resp.ID,
		BeatmapsetID:     resp.BeatmapsetID,
		Artist:           resp.Beatmapset.Artist,
		Title:            resp.Beatmapset.Title,
		Difficulty:       resp.Version,
		Mapper:           resp.Beatmapset.Creator,
		Mode:             resp.ModeInt,
		TotalLength:      resp.TotalLength,
		BPM:              resp.BPM,
		DifficultyRating: resp.DifficultyRating,
	}, nil
}

// User fetches one user by id or username.
func (c *Client) User(ctx context.Context, id string, token string) (User, error) {
	var resp userResponse
	if err := c.get(ctx, "/users/"+id, token, &resp); err != nil {
		return User{}, err
	}
	return User{
		ID:          resp.ID,
		Username:    resp.Username,
		AvatarURL:   resp.AvatarURL,
		Country:     resp.CountryCode,
		PP:          resp.Statistics.PP,
		Rank:        resp.Statistics.GlobalRank,
		CountryRank: resp.Statistics.CountryRank,
		Accuracy:    resp.Statistics.HitAccuracy,
	}, nil
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("osuapi: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("osuapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("osuapi: unexpected status %s for %s", resp.Status, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("osuapi: decoding response: %w", err)
	}
	return nil
}
