package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"whiteboard/internal/geometry"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// requireString returns args[key] or an error naming the missing argument.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// number returns args[key] as a float64. JSON numbers arrive as float64.
func number(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func requireNumber(args map[string]any, key string) (float64, error) {
	v, ok := number(args, key)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// parsePoints parses "[[x,y],[x,y],...]".
func parsePoints(s string) ([]geometry.Point, error) {
	var pts []geometry.Point
	if err := parseJSON(s, &pts); err != nil {
		return nil, fmt.Errorf("parse points: %w", err)
	}
	return pts, nil
}

// splitIDs splits a comma-separated id list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
