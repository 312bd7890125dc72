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

// Package services holds the persistence and orchestration layer of the
// tagging service: the metadata stores that map a video name to its tags, the
// video file stores, and the TaggingService that ties uploads to the sampler.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

const (
	// MaxSearchResults caps the number of rows returned by Search.
	MaxSearchResults = 10
	// TopTagsInStats is the number of most used tags reported by Stats.
	TopTagsInStats = 10
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrInvalidName   = errors.New("invalid video name")
)

// TagStore persists the tags computed for each video. Implementations must
// replace (never merge) the tags of an existing video on Upsert and keep the
// position of its first insertion, which breaks search ties.
type TagStore interface {
	// Load reads the backing state. Missing state is an empty store; malformed
	// state is an error.
	Load(ctx context.Context) error
	// Upsert stores tags for name, replacing any previous value. Tags are
	// normalized with model.NormalizeTags first.
	Upsert(ctx context.Context, name string, tags []string) error
	// Get returns the record for name or ErrVideoNotFound.
	Get(ctx context.Context, name string) (*model.VideoRecord, error)
	// Search ranks videos by the number of tags containing query.
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
	// Stats summarises the store.
	Stats(ctx context.Context) (*model.StoreStats, error)
	Close() error
}

// CleanName reduces an uploaded file name to its base name and rejects names
// that cannot be stored safely.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// ValidateName accepts only names that are already clean base names. Used for
// lookups, where a path must never be silently rewritten.
func ValidateName(name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	if clean != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// rankRecords implements the search ranking on an in-memory snapshot given in
// insertion order.
func rankRecords(records []*model.VideoRecord, query string) []model.SearchResult {
	out := make([]model.SearchResult, 0)
	query = strings.ToLower(query)
	if query == "" {
		return out
	}
	for _, r := range records {
		if n := r.CountMatches(query); n > 0 {
			out = append(out, model.SearchResult{Name: r.Name, Matches: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Matches > out[j].Matches
	})
	if len(out) > MaxSearchResults {
		out = out[:MaxSearchResults]
	}
	return out
}

// statsFromRecords computes StoreStats over a snapshot in insertion order.
// Ties among top tags are ordered by first appearance.
func statsFromRecords(records []*model.VideoRecord) *model.StoreStats {
	stats := &model.StoreStats{Videos: len(records), TopTags: []model.TagCount{}}
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		stats.Tags += len(r.Tags)
		for _, tag := range r.Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	stats.UniqueTags = len(order)
	for _, tag := range order {
		stats.TopTags = append(stats.TopTags, model.TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(stats.TopTags, func(i, j int) bool {
		return stats.TopTags[i].Count > stats.TopTags[j].Count
	})
	if len(stats.TopTags) > TopTagsInStats {
		stats.TopTags = stats.TopTags[:TopTagsInStats]
	}
	return stats
}
