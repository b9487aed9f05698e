package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/elbchat/elbchat/tool"
)

// DirectionsConfig points the directions tool at a Google Directions
// compatible endpoint.
type DirectionsConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

const maxRouteSteps = 8

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// NewDirectionsTool returns the routing tool. The mode argument is optional
// and defaults to transit.
func NewDirectionsTool(cfg DirectionsConfig) tool.Tool {
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"origin": map[string]any{
				"type":        "string",
				"description": "Starting location: address, landmark or place name",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "End location: address, landmark or place name",
			},
			"mode": map[string]any{
				"type":        "string",
				"description": "Transportation mode: transit, walking, driving or bicycling. Defaults to transit.",
			},
		},
		"required": []string{"origin", "destination"},
	}
	return tool.NewFunctionTool(
		"get_directions",
		"Get step-by-step directions and route information between two locations, including distance, duration and transit details. Use for questions about how to get somewhere or how long a trip takes.",
		params,
		func(ctx context.Context, args map[string]any) (string, error) {
			origin, _ := args["origin"].(string)
			destination, _ := args["destination"].(string)
			mode, _ := args["mode"].(string)
			return fetchDirections(ctx, client, cfg, origin, destination, mode)
		},
	)
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance     textValue `json:"distance"`
			Duration     textValue `json:"duration"`
			StartAddress string    `json:"start_address"`
			EndAddress   string    `json:"end_address"`
			Steps        []struct {
				HTMLInstructions string    `json:"html_instructions"`
				Distance         textValue `json:"distance"`
				Duration         textValue `json:"duration"`
				TransitDetails   *struct {
					Line struct {
						ShortName string `json:"short_name"`
						Vehicle   struct {
							Name string `json:"name"`
						} `json:"vehicle"`
					} `json:"line"`
					DepartureStop struct {
						Name string `json:"name"`
					} `json:"departure_stop"`
					ArrivalStop struct {
						Name string `json:"name"`
					} `json:"arrival_stop"`
					NumStops int `json:"num_stops"`
				} `json:"transit_details"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type textValue struct {
	Text string `json:"text"`
}

func fetchDirections(ctx context.Context, client *http.Client, cfg DirectionsConfig, origin, destination, mode string) (string, error) {
	if mode == "" {
		mode = "transit"
	}
	mode = strings.ToLower(mode)

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", mode)
	q.Set("key", cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build directions request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("directions api request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "Sorry, I couldn't fetch directions.", nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read directions response: %w", err)
	}
	var payload directionsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode directions response: %w", err)
	}
	if payload.Status != "OK" {
		return fmt.Sprintf("No route found between %s and %s", origin, destination), nil
	}
	if len(payload.Routes) == 0 || len(payload.Routes[0].Legs) == 0 {
		return "No routes available.", nil
	}
	leg := payload.Routes[0].Legs[0]

	var b strings.Builder
	fmt.Fprintf(&b, "**Directions from %s to %s**\n\n", origin, destination)
	fmt.Fprintf(&b, "Start: %s\n", leg.StartAddress)
	fmt.Fprintf(&b, "End: %s\n", leg.EndAddress)
	fmt.Fprintf(&b, "Distance: %s\n", leg.Distance.Text)
	fmt.Fprintf(&b, "Duration: %s\n", leg.Duration.Text)
	fmt.Fprintf(&b, "Mode: %s%s\n\n", strings.ToUpper(mode[:1]), mode[1:])

	b.WriteString("**Route Steps:**\n")
	stepCount := len(leg.Steps)
	if stepCount > maxRouteSteps {
		stepCount = maxRouteSteps
	}
	for i := 0; i < stepCount; i++ {
		step := leg.Steps[i]
		instruction := htmlTagPattern.ReplaceAllString(step.HTMLInstructions, "")
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, instruction, step.Distance.Text, step.Duration.Text)
		if t := step.TransitDetails; t != nil {
			fmt.Fprintf(&b, "   Take %s %s from %s to %s (%d stops)\n",
				t.Line.Vehicle.Name, t.Line.ShortName, t.DepartureStop.Name, t.ArrivalStop.Name, t.NumStops)
		}
	}
	if len(leg.Steps) > stepCount {
		fmt.Fprintf(&b, "... and %d more steps\n", len(leg.Steps)-stepCount)
	}
	return b.String(), nil
}
