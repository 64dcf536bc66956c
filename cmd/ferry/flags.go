package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/filter"
	"github.com/jamesainslie/ferry/pkg/ferry/output"
	"github.com/spf13/viper"
)

// buildFilter creates a filter.Filter from the search flags. Relative
// ages are measured back from now.
func buildFilter(now time.Time) (*filter.Filter, error) {
	var opts []filter.Option

	if name := viper.GetString("name"); name != "" {
		opts = append(opts, filter.WithName(name))
	}

	if content := viper.GetString("content"); content != "" {
		opts = append(opts, filter.WithContent(content))
	}

	if typeStr := viper.GetString("type"); typeStr != "" {
		t, err := filter.ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid type %q: %w", typeStr, err)
		}
		opts = append(opts, filter.WithType(t))
	}

	if s := viper.GetString("min_size"); s != "" {
		n, err := filter.ParseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", s, err)
		}
		opts = append(opts, filter.WithMinSize(n))
	}

	if s := viper.GetString("max_size"); s != "" {
		n, err := filter.ParseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid max-size %q: %w", s, err)
		}
		opts = append(opts, filter.WithMaxSize(n))
	}

	if s := viper.GetString("newer_than"); s != "" {
		d, err := filter.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid newer-than %q: %w", s, err)
		}
		opts = append(opts, filter.WithModifiedAfter(now.Add(-d)))
	}

	if s := viper.GetString("older_than"); s != "" {
		d, err := filter.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid older-than %q: %w", s, err)
		}
		opts = append(opts, filter.WithModifiedBefore(now.Add(-d)))
	}

	f, err := filter.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid search criteria: %w", err)
	}
	return f, nil
}

// formatList names the registered output formats for flag help.
func formatList() string {
	return strings.Join(output.Available(), ", ")
}
