package config

import (
	"runtime"
	"strings"
	"testing"
)

func TestIndexSettings_Validate(t *testing.T) {
	tests := []struct {
		name           string
		settings       IndexSettings
		expectedErrors int
		description    string
	}{
		{
			name:           "minimal valid settings",
			settings:       IndexSettings{Name: "papers"},
			expectedErrors: 0,
			description:    "Only a name is required",
		},
		{
			name:           "dots dashes and underscores allowed",
			settings:       IndexSettings{Name: "kwic_2024-v1.2", Parallelism: 4, MinShiftsPerWorker: 100},
			expectedErrors: 0,
			description:    "Names may use directory-safe punctuation",
		},
		{
			name:           "empty name",
			settings:       IndexSettings{Name: "  "},
			expectedErrors: 1,
			description:    "Whitespace-only names are rejected",
		},
		{
			name:           "path traversal name",
			settings:       IndexSettings{Name: "../etc"},
			expectedErrors: 1,
			description:    "Names become directory names and cannot escape the data dir",
		},
		{
			name:           "negative parallelism and partition size",
			settings:       IndexSettings{Name: "ok", Parallelism: -1, MinShiftsPerWorker: -5},
			expectedErrors: 2,
			description:    "Negative tuning values are rejected",
		},
		{
			name:           "name too long",
			settings:       IndexSettings{Name: strings.Repeat("a", 129)},
			expectedErrors: 1,
			description:    "Names are capped at 128 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.settings.Validate()
			if len(problems) != tt.expectedErrors {
				t.Errorf("%s: expected %d errors, got %d: %v", tt.description, tt.expectedErrors, len(problems), problems)
			}
		})
	}
}

func TestIndexSettings_ApplyDefaults(t *testing.T) {
	settings := IndexSettings{Name: "defaults"}
	settings.ApplyDefaults()

	if settings.Parallelism != runtime.GOMAXPROCS(0) {
		t.Errorf("Expected parallelism %d, got %d", runtime.GOMAXPROCS(0), settings.Parallelism)
	}
	if settings.MinShiftsPerWorker != DefaultMinShiftsPerWorker {
		t.Errorf("Expected min shifts per worker %d, got %d", DefaultMinShiftsPerWorker, settings.MinShiftsPerWorker)
	}

	explicit := IndexSettings{Name: "explicit", Parallelism: 1, MinShiftsPerWorker: 10}
	explicit.ApplyDefaults()
	if explicit.Parallelism != 1 || explicit.MinShiftsPerWorker != 10 {
		t.Errorf("Explicit values should be kept, got %+v", explicit)
	}
}
