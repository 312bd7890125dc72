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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

const (
	sqlCountVideos = "SELECT count(*) FROM videos"

	sqlUpsertVideo = "INSERT INTO videos (name, tags) VALUES ($1, $2) " +
		"ON CONFLICT (name) DO UPDATE SET tags = EXCLUDED.tags, updated_at = now()"

	sqlGetVideo = "SELECT name, tags FROM videos WHERE name = $1"

	sqlAllVideos = "SELECT name, tags FROM videos ORDER BY seq"

	// strpos avoids escaping LIKE wildcards found in user queries.
	sqlSearchVideos = "SELECT name, matches FROM (" +
		"SELECT v.name, v.seq, (SELECT count(*) FROM unnest(v.tags) AS t(tag) WHERE strpos(lower(t.tag), $1) > 0) AS matches " +
		"FROM videos v) ranked WHERE matches > 0 ORDER BY matches DESC, seq ASC LIMIT $2"
)

// Pool is the subset of *pgxpool.Pool used by the store.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresTagStore keeps one row per video. The seq column records the first
// insertion and survives overwrites, so it orders search ties.
type PostgresTagStore struct {
	pool Pool
}

func NewPostgresTagStore(pool Pool) *PostgresTagStore {
	return &PostgresTagStore{pool: pool}
}

// NewPostgresPool opens and pings a pool for the [metadata] section.
func NewPostgresPool(ctx context.Context, cfg cloud.Metadata) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Load checks that the schema is in place.
func (s *PostgresTagStore) Load(ctx context.Context) error {
	var n int64
	if err := s.pool.QueryRow(ctx, sqlCountVideos).Scan(&n); err != nil {
		return fmt.Errorf("videos table unavailable, run migrations first: %w", err)
	}
	return nil
}

func (s *PostgresTagStore) Upsert(ctx context.Context, name string, tags []string) error {
	if name == "" {
		return ErrInvalidName
	}
	tags = model.NormalizeTags(tags)
	if _, err := s.pool.Exec(ctx, sqlUpsertVideo, name, tags); err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", name, err)
	}
	return nil
}

func (s *PostgresTagStore) Get(ctx context.Context, name string) (*model.VideoRecord, error) {
	record := &model.VideoRecord{}
	err := s.pool.QueryRow(ctx, sqlGetVideo, name).Scan(&record.Name, &record.Tags)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", name, err)
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}
	return record, nil
}

func (s *PostgresTagStore) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	out := make([]model.SearchResult, 0)
	query = strings.ToLower(query)
	if query == "" {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, sqlSearchVideos, query, MaxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.SearchResult
		if err := rows.Scan(&r.Name, &r.Matches); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}
	return out, nil
}

func (s *PostgresTagStore) Stats(ctx context.Context) (*model.StoreStats, error) {
	rows, err := s.pool.Query(ctx, sqlAllVideos)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var records []*model.VideoRecord
	for rows.Next() {
		r := &model.VideoRecord{}
		if err := rows.Scan(&r.Name, &r.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate videos: %w", err)
	}
	return statsFromRecords(records), nil
}

func (s *PostgresTagStore) Close() error {
	s.pool.Close()
	return nil
}
