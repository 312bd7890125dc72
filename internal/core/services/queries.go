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

// BigQuery statements of the tag store. The single %s placeholder receives the
// fully qualified table name; values are always passed as named parameters.
const (
	// QryMergeVideo replaces the tags of an existing row or inserts a new one.
	// seq is assigned once, on insert, and orders search ties.
	QryMergeVideo = "MERGE `%s` T " +
		"USING (SELECT @name AS name, @tags AS tags) S ON T.name = S.name " +
		"WHEN MATCHED THEN UPDATE SET tags = S.tags, updated_at = CURRENT_TIMESTAMP() " +
		"WHEN NOT MATCHED THEN INSERT (name, tags, seq, updated_at) " +
		"VALUES (S.name, S.tags, UNIX_MICROS(CURRENT_TIMESTAMP()), CURRENT_TIMESTAMP())"

	// QryFindVideoByName returns the row of a single video.
	QryFindVideoByName = "SELECT name, tags FROM `%s` WHERE name = @name"

	// QrySearchVideos counts, per video, the tags containing @query and keeps
	// the @limit best videos. UNNEST flattens the repeated tags column.
	QrySearchVideos = "SELECT name, matches FROM (" +
		"SELECT name, seq, (SELECT COUNT(1) FROM UNNEST(tags) AS tag WHERE STRPOS(LOWER(tag), @query) > 0) AS matches " +
		"FROM `%s`) WHERE matches > 0 ORDER BY matches DESC, seq ASC LIMIT @limit"

	// QryAllVideos lists every video in insertion order.
	QryAllVideos = "SELECT name, tags FROM `%s` ORDER BY seq"
)
