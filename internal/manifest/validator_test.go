package manifest

import (
	"strings"
	"testing"
)

func TestValidate_ValidManifests(t *testing.T) {
	for _, file := range []string{"valid-export.json", "valid-export-extra.json"} {
		t.Run(file, func(t *testing.T) {
			result, err := Validate(readTestdata(t, file))
			if err != nil {
				t.Fatalf("Validate(%s) error: %v", file, err)
			}
			if !result.Valid {
				t.Errorf("expected valid, got invalid with %d issues:", len(result.Issues))
				for _, issue := range result.Issues {
					t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
				}
			}
		})
	}
}

func TestValidate_InvalidManifests(t *testing.T) {
	tests := []struct {
		file    string
		keyword string
	}{
		{"invalid-missing-url.json", "required"},
		{"invalid-enabled-type.json", "type"},
		{"invalid-not-object.json", "type"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := Validate(readTestdata(t, tt.file))
			if err != nil {
				t.Fatalf("Validate(%s) unexpected error: %v", tt.file, err)
			}
			if result.Valid {
				t.Fatal("expected invalid, got valid")
			}
			found := false
			for _, issue := range result.Issues {
				if issue.Keyword == tt.keyword {
					found = true
				}
			}
			if !found {
				t.Errorf("no issue with keyword %q in %v", tt.keyword, result.Issues)
			}
		})
	}
}

func TestValidate_IssuePaths(t *testing.T) {
	result, err := Validate([]byte(`{"enabled": "yes", "downloadUrl": "http://x/a.user.js"}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if result.Issues[0].Path != "/enabled" {
		t.Errorf("Path = %q, want /enabled", result.Issues[0].Path)
	}
	if !strings.HasPrefix(result.Issues[0].String(), "/enabled: ") {
		t.Errorf("String() = %q", result.Issues[0].String())
	}
}

func TestValidate_EmptyURLRejected(t *testing.T) {
	result, err := Validate([]byte(`{"enabled": true, "downloadUrl": ""}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Error("empty downloadUrl should be rejected")
	}
}

func TestValidate_ReportsEveryLeaf(t *testing.T) {
	result, err := Validate([]byte(`{"enabled": 1}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	keywords := map[string]bool{}
	for _, issue := range result.Issues {
		keywords[issue.Keyword] = true
		if issue.Message == "" {
			t.Errorf("issue %+v has no message", issue)
		}
	}
	if !keywords["required"] || !keywords["type"] {
		t.Errorf("expected required and type issues, got %v", result.Issues)
	}
}
