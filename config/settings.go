// Package config provides configuration structures for the KWIC engine.
// It defines per-index settings and the application configuration.
package config

import (
	"regexp"
	"runtime"
	"strings"
)

// indexNameRegex restricts index names to characters safe for directory names.
var indexNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

const (
	// DefaultMinShiftsPerWorker is the smallest partition handed to a sort worker.
	DefaultMinShiftsPerWorker = 4096

	maxIndexNameLength = 128
)

// IndexSettings contains all configuration options for a KWIC index.
//
// Parallelism only affects how fast the ranking is computed, never its order:
// shifts are partitioned by line ranges, each partition is sorted on its own
// goroutine, and the sorted partitions are merged with the same comparator.
type IndexSettings struct {
	Name               string `json:"name" mapstructure:"name"`                                   // Unique name for the index
	Description        string `json:"description,omitempty" mapstructure:"description"`           // Free text shown in listings
	Parallelism        int    `json:"parallelism" mapstructure:"parallelism"`                     // Max concurrent sort partitions; 1 sorts sequentially
	MinShiftsPerWorker int    `json:"min_shifts_per_worker" mapstructure:"min_shifts_per_worker"` // Lower bound on partition size
}

// Validate checks the settings and returns one message per problem found.
func (settings *IndexSettings) Validate() []string {
	var problems []string

	name := settings.Name
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "Index name cannot be empty or whitespace-only")
	} else {
		if len(name) > maxIndexNameLength {
			problems = append(problems, "Index name cannot be longer than 128 characters")
		}
		if !indexNameRegex.MatchString(name) {
			problems = append(problems, "Index name '"+name+"' may only contain letters, digits, '_', '-' and '.', and must start with a letter or digit")
		}
	}

	if settings.Parallelism < 0 {
		problems = append(problems, "parallelism cannot be negative")
	}
	if settings.MinShiftsPerWorker < 0 {
		problems = append(problems, "min_shifts_per_worker cannot be negative")
	}

	return problems
}

// ApplyDefaults applies default values to the index settings
func (settings *IndexSettings) ApplyDefaults() {
	if settings.Parallelism == 0 {
		settings.Parallelism = runtime.GOMAXPROCS(0)
	}
	if settings.MinShiftsPerWorker == 0 {
		settings.MinShiftsPerWorker = DefaultMinShiftsPerWorker
	}
}
