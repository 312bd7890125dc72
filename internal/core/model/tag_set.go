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

// TagSet is a set of tag tokens. It remembers the order in which tokens were
// first added so that serialized output is stable between runs; the order has
// no other meaning. The zero value is not usable, call NewTagSet.
type TagSet struct {
	index map[string]struct{}
	order []string
}

// NewTagSet creates an empty set.
func NewTagSet() *TagSet {
	return &TagSet{index: make(map[string]struct{})}
}

// NormalizeTag lowercases a token and strips surrounding whitespace.
func NormalizeTag(in string) string {
	return strings.TrimSpace(strings.ToLower(in))
}

// Add normalizes the token and inserts it. Empty tokens are ignored.
// Returns true when the token was not already present.
func (s *TagSet) Add(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == "" {
		return false
	}
	if _, ok := s.index[tag]; ok {
		return false
	}
	s.index[tag] = struct{}{}
	s.order = append(s.order, tag)
	return true
}

// AddAll inserts every token in tags.
func (s *TagSet) AddAll(tags ...string) {
	for _, t := range tags {
		s.Add(t)
	}
}

// Contains reports whether the normalized token is in the set.
func (s *TagSet) Contains(tag string) bool {
	_, ok := s.index[NormalizeTag(tag)]
	return ok
}

// Len returns the number of distinct tokens.
func (s *TagSet) Len() int {
	return len(s.order)
}

// Slice returns a copy of the tokens in first-seen order.
func (s *TagSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// NormalizeTags lowercases and trims tags, drops empty ones and collapses
// duplicates, keeping first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	s := NewTagSet()
	s.AddAll(tags...)
	return s.Slice()
}
