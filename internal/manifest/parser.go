package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse marks a manifest that is missing, not valid JSON, or fails the
// export schema.
var ErrParse = errors.New("manifest parse error")

// ParseExport validates and decodes export-details JSON. name identifies the
// source in error messages.
func ParseExport(data []byte, name string) (*ExportManifest, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	if !result.Valid {
		msgs := make([]string, 0, len(result.Issues))
		for _, issue := range result.Issues {
			msgs = append(msgs, issue.String())
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrParse, name, strings.Join(msgs, "; "))
	}

	var m ExportManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	return &m, nil
}

// ParseResourceMap decodes a resource map. Every value must be a string path;
// a JSON null document yields an empty map.
func ParseResourceMap(data []byte, name string) (ResourceMap, error) {
	var m ResourceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	if m == nil {
		m = ResourceMap{}
	}
	return m, nil
}
