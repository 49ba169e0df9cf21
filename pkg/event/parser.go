// parser.go — JSON parsing and the sample event written by `eventdp init`.
package event

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseEvent decodes an event JSON document.
func ParseEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse event JSON: %w", err)
	}
	return &e, nil
}

// ParseEventFile loads a standalone event JSON file.
func ParseEventFile(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	return ParseEvent(data)
}

// GetExampleJSON returns a sample event for a 1200×800 flyer.
func GetExampleJSON() string {
	return `{
  "id": "sample-launch-party",
  "title": "Launch Party",
  "date": "2026-12-05",
  "description": "Show everyone you're coming.",
  "flyerUrl": "flyer.png",
  "imagePlaceholders": [
    { "x": 850, "y": 250, "width": 300, "height": 300, "holeShape": "circle" }
  ],
  "textPlaceholders": [
    {
      "x": 50, "y": 270, "width": 200, "height": 50,
      "fontSize": 32, "color": "#ffffff", "textAlign": "left",
      "fontFamily": "", "fontStyle": "normal",
      "textTransform": "uppercase", "fontWeight": "bold",
      "label": "Your name"
    },
    {
      "x": 50, "y": 340, "width": 400, "height": 80,
      "fontSize": 20, "color": "#e0e0e0", "textAlign": "left",
      "fontStyle": "italic", "textTransform": "none", "fontWeight": "normal",
      "label": "Your role"
    }
  ]
}`
}

// ExampleEvent returns a parsed copy of GetExampleJSON.
func ExampleEvent() *Event {
	e, err := ParseEvent([]byte(GetExampleJSON()))
	if err != nil {
		panic(err)
	}
	return e
}
