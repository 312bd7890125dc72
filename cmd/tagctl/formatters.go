// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// Formatter renders command output.
type Formatter interface {
	FormatResults(results []model.SearchResult) (string, error)
	FormatStats(stats *model.StoreStats) (string, error)
}

type TextFormatter struct{}

func (TextFormatter) FormatResults(results []model.SearchResult) (string, error) {
	if len(results) == 0 {
		return "No matches\n", nil
	}
	var out strings.Builder
	for _, r := range results {
		fmt.Fprintf(&out, "%-40s %d\n", r.Name, r.Matches)
	}
	return out.String(), nil
}

func (TextFormatter) FormatStats(stats *model.StoreStats) (string, error) {
	var out strings.Builder
	fmt.Fprintf(&out, "Videos: %d\n", stats.Videos)
	fmt.Fprintf(&out, "Tags: %d (%d unique)\n", stats.Tags, stats.UniqueTags)
	if len(stats.TopTags) > 0 {
		out.WriteString("Top tags:\n")
		for _, tc := range stats.TopTags {
			fmt.Fprintf(&out, "  %-30s %d\n", tc.Tag, tc.Count)
		}
	}
	return out.String(), nil
}

type JSONFormatter struct{}

func (JSONFormatter) FormatResults(results []model.SearchResult) (string, error) {
	if results == nil {
		results = []model.SearchResult{}
	}
	return marshalJSON(results)
}

func (JSONFormatter) FormatStats(stats *model.StoreStats) (string, error) {
	return marshalJSON(stats)
}

func marshalJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b) + "\n", nil
}

type YAMLFormatter struct{}

func (YAMLFormatter) FormatResults(results []model.SearchResult) (string, error) {
	if results == nil {
		results = []model.SearchResult{}
	}
	return marshalYAML(results)
}

func (YAMLFormatter) FormatStats(stats *model.StoreStats) (string, error) {
	return marshalYAML(stats)
}

func marshalYAML(v interface{}) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(b), nil
}

// NewFormatter returns the formatter for an --output value.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return TextFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	case "yaml":
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (text, json or yaml)", format)
	}
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
}

func formatterFor(cmd *cobra.Command) (Formatter, error) {
	format, _ := cmd.Flags().GetString("output")
	return NewFormatter(format)
}
