package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/elbchat/elbchat/tool"
)

// PlacesConfig points the place-search tools at a Google Places compatible
// text search endpoint.
type PlacesConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// PlacesClient performs text searches against the places API. The events tool
// reuses it for venue lookups.
type PlacesClient struct {
	cfg    PlacesConfig
	client *http.Client
}

// NewPlacesClient creates a reusable search client.
func NewPlacesClient(cfg PlacesConfig) *PlacesClient {
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	return &PlacesClient{cfg: cfg, client: client}
}

// NewPlacesTool returns the place-search tool backed by the given client.
func NewPlacesTool(pc *PlacesClient) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What kind of place to look for, e.g. Italian restaurants, hotels, museums",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "City or area to search in, e.g. Hamburg, Hamburg Speicherstadt",
			},
		},
		"required": []string{"query", "location"},
	}
	return tool.NewFunctionTool(
		"search_places",
		"Search for places, businesses and points of interest in a city: restaurants, hotels, attractions, museums, cafes, shops and venues. Returns the top matches with addresses, ratings and opening status.",
		params,
		func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			location, _ := args["location"].(string)
			return pc.Search(ctx, query, location)
		},
	)
}

type placesResponse struct {
	Results []struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		OpeningHours     *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
}

// Search runs a text search and renders the top five results.
func (pc *PlacesClient) Search(ctx context.Context, query, location string) (string, error) {
	searchQuery := query + " in " + location
	q := url.Values{}
	q.Set("query", searchQuery)
	q.Set("key", pc.cfg.APIKey)
	endpoint := strings.TrimRight(pc.cfg.BaseURL, "/") + "/textsearch/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build places request: %w", err)
	}
	resp, err := pc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("places api request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "Sorry, I couldn't fetch places data.", nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read places response: %w", err)
	}
	var payload placesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode places response: %w", err)
	}
	if len(payload.Results) == 0 {
		return "No places found for: " + searchQuery, nil
	}

	limit := len(payload.Results)
	if limit > 5 {
		limit = 5
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d places for '%s':\n\n", limit, searchQuery)
	for i := 0; i < limit; i++ {
		place := payload.Results[i]
		address := place.FormattedAddress
		if address == "" {
			address = "Address not available"
		}
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, place.Name)
		fmt.Fprintf(&b, "   - Address: %s\n", address)
		if place.Rating > 0 {
			fmt.Fprintf(&b, "   - Rating: %g/5 (%d reviews)\n", place.Rating, place.UserRatingsTotal)
		}
		if place.OpeningHours != nil {
			status := "Closed now"
			if place.OpeningHours.OpenNow {
				status = "Open now"
			}
			fmt.Fprintf(&b, "   - Status: %s\n", status)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
