package mcp

import (
	"strings"
	"testing"
)

func TestBuildToolDescriptionsCoverage(t *testing.T) {
	t.Parallel()

	descriptions := buildToolDescriptions(Config{DefaultAspectRatio: "16:9"})
	if len(descriptions) != len(mcpToolNames) {
		t.Fatalf("expected %d tool descriptions, got %d", len(mcpToolNames), len(descriptions))
	}
	for _, name := range mcpToolNames {
		description, ok := descriptions[name]
		if !ok {
			t.Fatalf("missing description for %s", name)
		}
		if strings.TrimSpace(description) == "" {
			t.Fatalf("empty description for %s", name)
		}
	}
}

func TestBuildToolDescriptionsIncludeContractSections(t *testing.T) {
	t.Parallel()

	descriptions := buildToolDescriptions(Config{})
	required := []string{"Purpose:", "Requires:", "Effects:", "Next:"}
	for _, name := range mcpToolNames {
		description := descriptions[name]
		for _, marker := range required {
			if !strings.Contains(description, marker) {
				t.Fatalf("description for %s missing marker %q: %q", name, marker, description)
			}
		}
	}
}

func TestBuildToolDescriptionsIncludeConfiguredAspectRatio(t *testing.T) {
	t.Parallel()

	descriptions := buildToolDescriptions(Config{DefaultAspectRatio: "16:10"})
	if !strings.Contains(descriptions[toolDeckCreate], `defaults to "16:10"`) {
		t.Fatalf("deck.create description missing configured aspect default: %q", descriptions[toolDeckCreate])
	}
}
