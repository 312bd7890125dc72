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

package services_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
)

func newJSONStore(t *testing.T) (*services.JSONTagStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	store := services.NewJSONTagStore(path)
	require.NoError(t, store.Load(context.Background()))
	return store, path
}

func TestJSONStoreLoadMissingFile(t *testing.T) {
	store, path := newJSONStore(t)
	assert.Empty(t, store.Snapshot())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "load must not create the file")
}

func TestJSONStoreLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{"},
		{"array", `["a"]`},
		{"tags not a list", `{"a.mp4": "car"}`},
		{"trailing data", `{"a.mp4": []} {}`},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "metadata.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			err := services.NewJSONTagStore(path).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestJSONStoreLoadKeepsKeyOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	content := `{"zeta.mp4": ["car rojo"], "alpha.mp4": ["car", "street"], "mid.mp4": []}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store := services.NewJSONTagStore(path)
	require.NoError(t, store.Load(context.Background()))

	want := []*model.VideoRecord{
		{Name: "zeta.mp4", Tags: []string{"car rojo"}},
		{Name: "alpha.mp4", Tags: []string{"car", "street"}},
		{Name: "mid.mp4", Tags: []string{}},
	}
	if diff := cmp.Diff(want, store.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, path := newJSONStore(t)

	require.NoError(t, store.Upsert(ctx, "b.mp4", []string{"car rojo", "a", "red"}))
	require.NoError(t, store.Upsert(ctx, "a.mp4", []string{"dog"}))
	require.NoError(t, store.Upsert(ctx, "c.mp4", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"b.mp4":["car rojo","a","red"],"a.mp4":["dog"],"c.mp4":[]}`, string(data))

	reloaded := services.NewJSONTagStore(path)
	require.NoError(t, reloaded.Load(ctx))
	if diff := cmp.Diff(store.Snapshot(), reloaded.Snapshot()); diff != "" {
		t.Errorf("reloaded store differs (-before +after):\n%s", diff)
	}
}

func TestJSONStoreUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)

	require.NoError(t, store.Upsert(ctx, "first.mp4", []string{"car", "bus"}))
	require.NoError(t, store.Upsert(ctx, "second.mp4", []string{"car"}))
	require.NoError(t, store.Upsert(ctx, "first.mp4", []string{"tree"}))
	require.NoError(t, store.Upsert(ctx, "first.mp4", []string{"tree"}))

	want := []*model.VideoRecord{
		{Name: "first.mp4", Tags: []string{"tree"}},
		{Name: "second.mp4", Tags: []string{"car"}},
	}
	if diff := cmp.Diff(want, store.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONStoreUpsertCollapsesDuplicateTags(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)
	require.NoError(t, store.Upsert(ctx, "a.mp4", []string{"car", "car", "Car ", "  Street"}))

	r, err := store.Get(ctx, "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "street"}, r.Tags)

	results, err := store.Search(ctx, "car")
	require.NoError(t, err)
	assert.Equal(t, []model.SearchResult{{Name: "a.mp4", Matches: 1}}, results)
}

func TestJSONStoreUpsertCopiesTags(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)
	tags := []string{"car"}
	require.NoError(t, store.Upsert(ctx, "a.mp4", tags))
	tags[0] = "mutated"

	r, err := store.Get(ctx, "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, []string{"car"}, r.Tags)
}

func TestJSONStoreUpsertFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// The metadata path is a directory, so the rename fails.
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0o600))

	store := services.NewJSONTagStore(path)
	assert.Error(t, store.Upsert(ctx, "a.mp4", []string{"car"}))
	assert.Empty(t, store.Snapshot())
	_, err := store.Get(ctx, "a.mp4")
	assert.ErrorIs(t, err, services.ErrVideoNotFound)
}

func TestJSONStoreGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)
	require.NoError(t, store.Upsert(ctx, "a.mp4", []string{"car rojo"}))

	r, err := store.Get(ctx, "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, &model.VideoRecord{Name: "a.mp4", Tags: []string{"car rojo"}}, r)

	_, err = store.Get(ctx, "missing.mp4")
	assert.ErrorIs(t, err, services.ErrVideoNotFound)
}

func TestJSONStoreSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)
	require.NoError(t, store.Upsert(ctx, "one.mp4", []string{"car rojo", "street"}))
	require.NoError(t, store.Upsert(ctx, "two.mp4", []string{"car rojo", "car azul", "carpet"}))
	require.NoError(t, store.Upsert(ctx, "three.mp4", []string{"dog"}))
	require.NoError(t, store.Upsert(ctx, "four.mp4", []string{"Scar"}))

	tests := []struct {
		name  string
		query string
		want  []model.SearchResult
	}{
		{"empty query", "", []model.SearchResult{}},
		{"no match", "bicycle", []model.SearchResult{}},
		{"ranked by count", "car", []model.SearchResult{
			{Name: "two.mp4", Matches: 3},
			{Name: "one.mp4", Matches: 1},
			{Name: "four.mp4", Matches: 1},
		}},
		{"case insensitive", "ROJO", []model.SearchResult{
			{Name: "one.mp4", Matches: 1},
			{Name: "two.mp4", Matches: 1},
		}},
		{"multi word substring", "car r", []model.SearchResult{
			{Name: "one.mp4", Matches: 1},
			{Name: "two.mp4", Matches: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONStoreSearchLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)
	for i := 0; i < 15; i++ {
		tags := []string{"car"}
		if i%2 == 1 {
			tags = append(tags, "car rojo")
		}
		require.NoError(t, store.Upsert(ctx, fmt.Sprintf("v%02d.mp4", i), tags))
	}

	got, err := store.Search(ctx, "car")
	require.NoError(t, err)
	require.Len(t, got, services.MaxSearchResults)
	// The seven two-match videos come first in insertion order, then the ones
	// with a single match.
	assert.Equal(t, "v01.mp4", got[0].Name)
	assert.Equal(t, "v13.mp4", got[6].Name)
	assert.Equal(t, 2, got[6].Matches)
	assert.Equal(t, "v00.mp4", got[7].Name)
	assert.Equal(t, "v04.mp4", got[9].Name)
}

func TestJSONStoreStats(t *testing.T) {
	ctx := context.Background()
	store, _ := newJSONStore(t)
	require.NoError(t, store.Upsert(ctx, "a.mp4", []string{"car", "street"}))
	require.NoError(t, store.Upsert(ctx, "b.mp4", []string{"street", "car rojo"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.StoreStats{
		Videos:     2,
		Tags:       4,
		UniqueTags: 3,
		TopTags: []model.TagCount{
			{Tag: "street", Count: 2},
			{Tag: "car", Count: 1},
			{Tag: "car rojo", Count: 1},
		},
	}, stats)
}

func TestJSONStoreConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	store, path := newJSONStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Upsert(ctx, fmt.Sprintf("v%d.mp4", i), []string{"tag"}))
		}(i)
	}
	wg.Wait()

	reloaded := services.NewJSONTagStore(path)
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.Snapshot(), 20)
}
