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

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// JSONTagStore keeps every record in memory and mirrors the whole mapping to a
// single JSON object file ({"clip.mp4": ["car rojo", ...]}) on each Upsert.
// Object keys are written in insertion order.
type JSONTagStore struct {
	path string

	mu      sync.RWMutex
	records []*model.VideoRecord
	index   map[string]int
}

func NewJSONTagStore(path string) *JSONTagStore {
	return &JSONTagStore{path: path, index: make(map[string]int)}
}

// Path returns the backing file.
func (s *JSONTagStore) Path() string {
	return s.path
}

// Load replaces the in-memory state with the file contents. A missing file
// leaves the store empty.
func (s *JSONTagStore) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "metadata file not found, starting empty", "file", s.path)
		s.reset(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read metadata file %s: %w", s.path, err)
	}
	records, err := decodeOrderedRecords(data)
	if err != nil {
		return fmt.Errorf("malformed metadata file %s: %w", s.path, err)
	}
	s.reset(records)
	slog.InfoContext(ctx, "loaded metadata", "file", s.path, "videos", len(records))
	return nil
}

func (s *JSONTagStore) reset(records []*model.VideoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.index = make(map[string]int, len(records))
	for i, r := range records {
		s.index[r.Name] = i
	}
}

func (s *JSONTagStore) Upsert(ctx context.Context, name string, tags []string) error {
	if name == "" {
		return ErrInvalidName
	}
	record := model.NewVideoRecord(name, model.NormalizeTags(tags))

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.index[name]
	if existed {
		old := s.records[previous]
		s.records[previous] = record
		if err := s.persist(); err != nil {
			s.records[previous] = old
			return err
		}
	} else {
		s.records = append(s.records, record)
		s.index[name] = len(s.records) - 1
		if err := s.persist(); err != nil {
			s.records = s.records[:len(s.records)-1]
			delete(s.index, name)
			return err
		}
	}
	slog.DebugContext(ctx, "stored tags", "video", name, "tags", len(record.Tags), "replaced", existed)
	return nil
}

func (s *JSONTagStore) Get(_ context.Context, name string) (*model.VideoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[name]
	if !ok {
		return nil, ErrVideoNotFound
	}
	r := s.records[i]
	return model.NewVideoRecord(r.Name, r.Tags), nil
}

func (s *JSONTagStore) Search(_ context.Context, query string) ([]model.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankRecords(s.records, query), nil
}

func (s *JSONTagStore) Stats(_ context.Context) (*model.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statsFromRecords(s.records), nil
}

// Snapshot returns a copy of the records in insertion order.
func (s *JSONTagStore) Snapshot() []*model.VideoRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.VideoRecord, len(s.records))
	for i, r := range s.records {
		out[i] = model.NewVideoRecord(r.Name, r.Tags)
	}
	return out
}

func (s *JSONTagStore) Close() error {
	return nil
}

// persist writes the mapping through a temp file in the same directory and
// renames it over the target. Callers hold s.mu.
func (s *JSONTagStore) persist() error {
	data, err := encodeOrderedRecords(s.records)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp metadata file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace metadata file: %w", err)
	}
	return nil
}

func encodeOrderedRecords(records []*model.VideoRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		value, err := json.Marshal(tags)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrderedRecords reads a JSON object of string arrays, keeping key order.
// A repeated key keeps its first position and its last value.
func decodeOrderedRecords(data []byte) ([]*model.VideoRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var records []*model.VideoRecord
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var tags []string
		if err := dec.Decode(&tags); err != nil {
			return nil, fmt.Errorf("tags of %q: %w", name, err)
		}
		if tags == nil {
			tags = []string{}
		}
		if i, seen := index[name]; seen {
			records[i].Tags = tags
			continue
		}
		index[name] = len(records)
		records = append(records, &model.VideoRecord{Name: name, Tags: tags})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON object")
	}
	return records, nil
}
