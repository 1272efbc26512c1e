package repository

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	//go:embed mappings/gdelt-events.yaml
	defaultEventMapping []byte
	//go:embed mappings/tvnews.yaml
	defaultNewsMapping []byte
)

// EventMapping returns the event index body as JSON. An empty path selects
// the built-in geo_point mapping; otherwise the YAML file at path is used.
func EventMapping(path string) ([]byte, error) {
	return loadMapping(defaultEventMapping, path)
}

// NewsMapping returns the TV news index body as JSON. An empty path selects
// the built-in mapping with keyword station and phrase fields.
func NewsMapping(path string) ([]byte, error) {
	return loadMapping(defaultNewsMapping, path)
}

func loadMapping(builtin []byte, path string) ([]byte, error) {
	src := builtin
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read mapping %s: %w", path, err)
		}
		src = data
	}
	return MappingJSON(src)
}

// MappingJSON converts a YAML index body into JSON.
func MappingJSON(src []byte) ([]byte, error) {
	var body map[string]any
	if err := yaml.Unmarshal(src, &body); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("parse mapping: empty document")
	}
	return json.Marshal(body)
}
