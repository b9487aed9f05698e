package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/elbchat/elbchat/tool"
)

// WeatherConfig points the weather tool at an OpenWeatherMap-compatible
// endpoint. HTTPClient is optional; the default uses a 10s timeout.
type WeatherConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// NewWeatherTool returns the current-conditions tool.
func NewWeatherTool(cfg WeatherConfig) tool.Tool {
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{
				"type":        "string",
				"description": "City name, e.g. Hamburg, Berlin, Munich",
			},
		},
		"required": []string{"city"},
	}
	return tool.NewFunctionTool(
		"get_current_weather",
		"Get current real-time weather conditions for a city: temperature, description, feels-like temperature and humidity. Use for questions about current weather, what to wear, or planning outdoor activities.",
		params,
		func(ctx context.Context, args map[string]any) (string, error) {
			city, _ := args["city"].(string)
			return fetchWeather(ctx, client, cfg.BaseURL, cfg.APIKey, city)
		},
	)
}

func fetchWeather(ctx context.Context, client *http.Client, baseURL, apiKey, city string) (string, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", apiKey)
	q.Set("units", "metric")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build weather request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather api request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Sorry, I couldn't fetch the weather data for %s", city), nil
	}

	var payload struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read weather response: %w", err)
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}
	description := ""
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Description
	}
	return fmt.Sprintf(
		"Weather in %s: %s. Temperature: %.1f°C (feels like %.1f°C). Humidity: %d%%",
		city, description, payload.Main.Temp, payload.Main.FeelsLike, payload.Main.Humidity,
	), nil
}
