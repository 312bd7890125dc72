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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// BigQueryVideoRow is the table layout of the BigQuery tag store.
type BigQueryVideoRow struct {
	Name      string    `bigquery:"name"`
	Tags      []string  `bigquery:"tags"`
	Seq       int64     `bigquery:"seq"`
	UpdatedAt time.Time `bigquery:"updated_at"`
}

// BigQueryTagStore keeps one row per video in a BigQuery table, which lets
// several service instances share the same tags.
type BigQueryTagStore struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	VideoTable     string
}

func NewBigQueryTagStore(client *bigquery.Client, dataset, table string) *BigQueryTagStore {
	return &BigQueryTagStore{BigqueryClient: client, DatasetName: dataset, VideoTable: table}
}

// GetFQN returns the table name in the project.dataset.table form used by SQL.
func (s *BigQueryTagStore) GetFQN() string {
	return TableFQN(s.BigqueryClient.Dataset(s.DatasetName).Table(s.VideoTable).FullyQualifiedName())
}

// TableFQN turns the client's "project:dataset.table" into "project.dataset.table".
func TableFQN(fullyQualifiedName string) string {
	return strings.Replace(fullyQualifiedName, ":", ".", 1)
}

// Load creates the table when it does not exist yet.
func (s *BigQueryTagStore) Load(ctx context.Context) error {
	table := s.BigqueryClient.Dataset(s.DatasetName).Table(s.VideoTable)
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("failed to read table metadata %s: %w", s.VideoTable, err)
	}

	schema, err := bigquery.InferSchema(BigQueryVideoRow{})
	if err != nil {
		return err
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.VideoTable, err)
	}
	slog.InfoContext(ctx, "created bigquery table", "dataset", s.DatasetName, "table", s.VideoTable)
	return nil
}

func (s *BigQueryTagStore) Upsert(ctx context.Context, name string, tags []string) error {
	if name == "" {
		return ErrInvalidName
	}
	tags = model.NormalizeTags(tags)
	q := s.BigqueryClient.Query(fmt.Sprintf(QryMergeVideo, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "name", Value: name},
		{Name: "tags", Value: tags},
	}
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start merge for %s: %w", name, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for merge of %s: %w", name, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("merge of %s failed: %w", name, err)
	}
	return nil
}

func (s *BigQueryTagStore) Get(ctx context.Context, name string) (*model.VideoRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindVideoByName, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "name", Value: name}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	record := &model.VideoRecord{}
	err = itr.Next(record)
	if errors.Is(err, iterator.Done) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}
	return record, nil
}

func (s *BigQueryTagStore) Search(ctx context.Context, query string) (out []model.SearchResult, err error) {
	out = make([]model.SearchResult, 0)
	query = strings.ToLower(query)
	if query == "" {
		return out, nil
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QrySearchVideos, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "query", Value: query},
		{Name: "limit", Value: MaxSearchResults},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	for {
		var r model.SearchResult
		err := itr.Next(&r)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *BigQueryTagStore) Stats(ctx context.Context) (*model.StoreStats, error) {
	itr, err := s.BigqueryClient.Query(fmt.Sprintf(QryAllVideos, s.GetFQN())).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	var records []*model.VideoRecord
	for {
		r := &model.VideoRecord{}
		err := itr.Next(r)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate results: %w", err)
		}
		records = append(records, r)
	}
	return statsFromRecords(records), nil
}

// Close is a no-op; the client belongs to cloud.ServiceClients.
func (s *BigQueryTagStore) Close() error {
	return nil
}
