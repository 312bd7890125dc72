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

package model

import "strings"

// VideoRecord is the persisted tag list of one uploaded video. Name is the
// original upload filename and is unique within a store.
type VideoRecord struct {
	Name string   `json:"nombre" bigquery:"name"`
	Tags []string `json:"etiquetas" bigquery:"tags"`
}

// NewVideoRecord copies tags so later changes to the caller's slice do not
// leak into the record.
func NewVideoRecord(name string, tags []string) *VideoRecord {
	out := make([]string, len(tags))
	copy(out, tags)
	return &VideoRecord{Name: name, Tags: out}
}

// CountMatches returns how many tags contain query, ignoring case. The query
// is expected to be lowercased already.
func (v *VideoRecord) CountMatches(query string) int {
	count := 0
	for _, tag := range v.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			count++
		}
	}
	return count
}

// SearchResult is one ranked hit returned by a search.
type SearchResult struct {
	Name    string `json:"nombre" yaml:"nombre" bigquery:"name"`
	Matches int    `json:"coincidencias" yaml:"coincidencias" bigquery:"matches"`
}

// TagCount pairs a tag token with the number of videos carrying it.
type TagCount struct {
	Tag   string `json:"etiqueta" yaml:"etiqueta" bigquery:"tag"`
	Count int    `json:"videos" yaml:"videos" bigquery:"videos"`
}

// StoreStats summarises the contents of a metadata store.
type StoreStats struct {
	Videos     int        `json:"videos" yaml:"videos"`
	Tags       int        `json:"etiquetas" yaml:"etiquetas"`
	UniqueTags int        `json:"etiquetas_unicas" yaml:"etiquetas_unicas"`
	TopTags    []TagCount `json:"principales" yaml:"principales"`
}
