package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/retrieval"
	"github.com/elbchat/elbchat/tool"
)

func TestWeatherToolFormatsConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Hamburg", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Write([]byte(`{
			"weather": [{"description": "light rain"}],
			"main": {"temp": 12.3, "feels_like": 10.8, "humidity": 87}
		}`))
	}))
	defer srv.Close()

	weather := NewWeatherTool(WeatherConfig{BaseURL: srv.URL, APIKey: "test-key", HTTPClient: srv.Client()})
	out, err := weather.Call(context.Background(), map[string]any{"city": "Hamburg"})
	require.NoError(t, err)
	assert.Equal(t, "Weather in Hamburg: light rain. Temperature: 12.3°C (feels like 10.8°C). Humidity: 87%", out)
}

func TestWeatherToolUpstreamFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	weather := NewWeatherTool(WeatherConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	out, err := weather.Call(context.Background(), map[string]any{"city": "Hamburg"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I couldn't fetch the weather data for Hamburg", out)
}

func TestPlacesToolRendersTopFive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "museums in Hamburg", r.URL.Query().Get("query"))
		w.Write([]byte(`{"results": [
			{"name": "Kunsthalle", "formatted_address": "Glockengießerwall 5", "rating": 4.5, "user_ratings_total": 9000, "opening_hours": {"open_now": true}},
			{"name": "Maritime Museum", "formatted_address": "Koreastraße 1", "rating": 4.6, "user_ratings_total": 7000},
			{"name": "A"}, {"name": "B"}, {"name": "C"}, {"name": "D"}
		]}`))
	}))
	defer srv.Close()

	places := NewPlacesTool(NewPlacesClient(PlacesConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()}))
	out, err := places.Call(context.Background(), map[string]any{"query": "museums", "location": "Hamburg"})
	require.NoError(t, err)
	assert.Contains(t, out, "Found 5 places for 'museums in Hamburg':")
	assert.Contains(t, out, "1. **Kunsthalle**")
	assert.Contains(t, out, "Rating: 4.5/5 (9000 reviews)")
	assert.Contains(t, out, "Status: Open now")
	assert.Contains(t, out, "Address not available")
	assert.NotContains(t, out, "**D**")
}

func TestPlacesToolNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	places := NewPlacesTool(NewPlacesClient(PlacesConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()}))
	out, err := places.Call(context.Background(), map[string]any{"query": "unicorn cafes", "location": "Hamburg"})
	require.NoError(t, err)
	assert.Equal(t, "No places found for: unicorn cafes in Hamburg", out)
}

func TestDirectionsToolRendersRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "transit", r.URL.Query().Get("mode"))
		w.Write([]byte(`{"status": "OK", "routes": [{"legs": [{
			"distance": {"text": "4.2 km"},
			"duration": {"text": "18 mins"},
			"start_address": "Hauptbahnhof, Hamburg",
			"end_address": "Elbphilharmonie, Hamburg",
			"steps": [
				{"html_instructions": "Walk to <b>Jungfernstieg</b>", "distance": {"text": "400 m"}, "duration": {"text": "5 mins"}},
				{"html_instructions": "Take the U3", "distance": {"text": "3.8 km"}, "duration": {"text": "13 mins"},
				 "transit_details": {"line": {"short_name": "U3", "vehicle": {"name": "Subway"}},
					"departure_stop": {"name": "Jungfernstieg"}, "arrival_stop": {"name": "Baumwall"}, "num_stops": 3}}
			]
		}]}]}`))
	}))
	defer srv.Close()

	directions := NewDirectionsTool(DirectionsConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	out, err := directions.Call(context.Background(), map[string]any{
		"origin": "Hauptbahnhof", "destination": "Elbphilharmonie",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "**Directions from Hauptbahnhof to Elbphilharmonie**")
	assert.Contains(t, out, "Distance: 4.2 km")
	assert.Contains(t, out, "Mode: Transit")
	assert.Contains(t, out, "1. Walk to Jungfernstieg (400 m, 5 mins)")
	assert.Contains(t, out, "Take Subway U3 from Jungfernstieg to Baumwall (3 stops)")
	assert.NotContains(t, out, "<b>")
}

func TestDirectionsToolNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}))
	defer srv.Close()

	directions := NewDirectionsTool(DirectionsConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	out, err := directions.Call(context.Background(), map[string]any{
		"origin": "Hamburg", "destination": "Atlantis",
	})
	require.NoError(t, err)
	assert.Equal(t, "No route found between Hamburg and Atlantis", out)
}

func TestEventsToolCombinesVenuesAndFestivals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "concerts events venues in Hamburg", r.URL.Query().Get("query"))
		w.Write([]byte(`{"results": [{"name": "Elbphilharmonie", "formatted_address": "Platz der Deutschen Einheit 1"}]}`))
	}))
	defer srv.Close()

	events := NewEventsTool(NewPlacesClient(PlacesConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()}))
	out, err := events.Call(context.Background(), map[string]any{"eventType": "concerts"})
	require.NoError(t, err)
	assert.Contains(t, out, "Hamburg Events & Venues (as of ")
	assert.Contains(t, out, "**Elbphilharmonie**")
	assert.Contains(t, out, "Reeperbahn Festival")
	assert.Contains(t, out, "Hamburg DOM")
}

type fixedEmbedder struct{ vector []float32 }

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, nil
}

func TestKnowledgeToolEmptyBase(t *testing.T) {
	engine := retrieval.NewEngine(fixedEmbedder{vector: []float32{1, 0}},
		retrieval.NewMemoryIndex(), retrieval.NewMemoryIndex(), logging.NoOpLogger{})

	kb := NewKnowledgeTool(engine)
	out, err := kb.Call(context.Background(), map[string]any{"query": "Speicherstadt"})
	require.NoError(t, err)
	assert.Equal(t, "No relevant information found in the knowledge base about: Speicherstadt", out)
}

func TestHistoryToolFindsPastTurn(t *testing.T) {
	engine := retrieval.NewEngine(fixedEmbedder{vector: []float32{1, 0}},
		retrieval.NewMemoryIndex(), retrieval.NewMemoryIndex(), logging.NoOpLogger{})
	require.NoError(t, engine.IndexTurn(context.Background(), "s1", "I love jazz", "Noted!"))

	history := NewHistoryTool(engine)
	out, err := history.Call(context.Background(), map[string]any{"query": "music taste"})
	require.NoError(t, err)
	assert.Contains(t, out, "[Previous conversation from ")
	assert.Contains(t, out, "User: I love jazz")
}

func TestRegisterBuiltinsOnce(t *testing.T) {
	engine := retrieval.NewEngine(fixedEmbedder{vector: []float32{1, 0}},
		retrieval.NewMemoryIndex(), retrieval.NewMemoryIndex(), logging.NoOpLogger{})
	reg := tool.NewRegistry()

	require.NoError(t, RegisterBuiltins(reg, Deps{Engine: engine}))
	assert.Equal(t, 6, reg.Len())

	// A repeated registration pass fails instead of doubling capabilities.
	err := RegisterBuiltins(reg, Deps{Engine: engine})
	assert.Error(t, err)
}
