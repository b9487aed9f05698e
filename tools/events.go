package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elbchat/elbchat/tool"
)

// NewEventsTool returns the Hamburg events tool. It looks up current event
// venues through the places client and appends the recurring city festivals.
// Registered once; a second events-flavored registration would fail at
// startup anyway.
func NewEventsTool(pc *PlacesClient) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"eventType": map[string]any{
				"type":        "string",
				"description": "Type of event, e.g. concerts, theater, festivals, museums",
			},
		},
		"required": []string{"eventType"},
	}
	return tool.NewFunctionTool(
		"find_hamburg_events",
		"Find Hamburg events, festivals, cultural activities and entertainment: venues for a given event type plus the city's major recurring festivals. Use for questions about what to do in Hamburg.",
		params,
		func(ctx context.Context, args map[string]any) (string, error) {
			eventType, _ := args["eventType"].(string)
			return findHamburgEvents(ctx, pc, eventType)
		},
	)
}

func findHamburgEvents(ctx context.Context, pc *PlacesClient, eventType string) (string, error) {
	venues, err := pc.Search(ctx, eventType+" events venues", "Hamburg")
	if err != nil {
		venues = "Venue lookup is unavailable right now."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hamburg Events & Venues (as of %s):\n\n", time.Now().Format("January 02, 2006"))
	b.WriteString(venues)
	b.WriteString("\n\n**Popular Hamburg Events & Festivals:**\n")
	b.WriteString("- **Hamburg DOM** - One of Europe's largest funfairs (held 3 times per year)\n")
	b.WriteString("- **Hafengeburtstag (Port Anniversary)** - May - Massive harbor celebration\n")
	b.WriteString("- **Reeperbahn Festival** - September - Music and arts festival\n")
	b.WriteString("- **Christmas Markets** - November-December - Traditional German markets\n")
	b.WriteString("- **Alstervergnügen** - Late summer - Festival around the Alster lake\n")
	b.WriteString("- **Long Night of Museums** - Twice yearly - Museums open late with special programs\n\n")
	b.WriteString("**Tip:** For real-time event listings, check:\n")
	b.WriteString("- hamburg.com/events\n")
	b.WriteString("- Eventbrite Hamburg\n")
	b.WriteString("- Local venue websites\n")
	return b.String(), nil
}
