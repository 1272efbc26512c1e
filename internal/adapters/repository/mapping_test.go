package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventMapping(t *testing.T) {
	raw, err := EventMapping("")
	require.NoError(t, err)

	var body struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "geo_point", body.Mappings.Properties["location"].Type)
	require.Equal(t, "keyword", body.Mappings.Properties["time_stone"].Type)
}

func TestEventMappingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mappings:\n  properties:\n    location:\n      type: geo_shape\n"), 0o600))

	raw, err := EventMapping(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"mappings":{"properties":{"location":{"type":"geo_shape"}}}}`, string(raw))

	_, err = EventMapping(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	_, err = MappingJSON([]byte("# nothing\n"))
	require.Error(t, err)

	_, err = MappingJSON([]byte("mappings: [unclosed"))
	require.Error(t, err)
}

func TestNewsMapping(t *testing.T) {
	raw, err := NewsMapping("")
	require.NoError(t, err)

	var body struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "keyword", body.Mappings.Properties["station"].Type)
	require.Equal(t, "keyword", body.Mappings.Properties["word"].Type)
	require.Equal(t, "date", body.Mappings.Properties["date"].Type)
	require.Equal(t, "integer", body.Mappings.Properties["ngrams"].Type)
}
