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

package cloud

import (
	"path"
	"strings"
)

// GetGCSObjectName is the chain context key under which the object that
// triggered a workflow is kept.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the JSON payload Cloud Storage publishes to
// Pub/Sub when an object is finalized. Only the fields the tagging workflow
// reads are decoded.
type GCSPubSubNotification struct {
	Kind        string            `json:"kind"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Bucket      string            `json:"bucket"`
	Generation  string            `json:"generation"`
	ContentType string            `json:"contentType"`
	Size        string            `json:"size"`
	MD5Hash     string            `json:"md5Hash"`
	MetaData    map[string]string `json:"metadata"`
}

// GCSObject identifies one object in a bucket.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// BaseName is the last path element of the object name, which is the video
// identifier used by the tag store.
func (o *GCSObject) BaseName() string {
	return path.Base(o.Name)
}

// IsVideo reports whether the object's content type is a video type.
func (o *GCSObject) IsVideo() bool {
	return strings.HasPrefix(o.MIMEType, "video/")
}

// URI returns the gs:// form of the object.
func (o *GCSObject) URI() string {
	return "gs://" + o.Bucket + "/" + o.Name
}
