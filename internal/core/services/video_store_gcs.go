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
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// GCSVideoStore keeps videos in a Cloud Storage bucket. Uploads are copied to
// a local temp file at the same time so the sampler can read them.
//
// Download links are V4 signed URLs. When SignerEmail is set the signature is
// produced by the IAM Credentials API, which works on GCP runtimes that have
// no private key available.
type GCSVideoStore struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
	Bucket        string
	URLExpiry     time.Duration
	TempDir       string
}

func NewGCSVideoStore(client *storage.Client, iam *credentials.IamCredentialsClient, signerEmail, bucket string, expiry time.Duration) *GCSVideoStore {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &GCSVideoStore{
		StorageClient: client,
		IAMClient:     iam,
		SignerEmail:   signerEmail,
		Bucket:        bucket,
		URLExpiry:     expiry,
	}
}

func (s *GCSVideoStore) Save(ctx context.Context, name string, src io.Reader) (_ *StoredVideo, err error) {
	name, err = CleanName(name)
	if err != nil {
		return nil, err
	}
	contentType, src, err := sniffUpload(ctx, name, src)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.TempDir, "gcs-upload-*")
	if err != nil {
		return nil, fmt.Errorf("could not create temp file: %w", err)
	}
	release := func() { _ = os.Remove(tmp.Name()) }
	defer func() {
		if err != nil {
			release()
		}
	}()

	// Cancelling the writer's context aborts the upload on failure.
	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	writer := s.StorageClient.Bucket(s.Bucket).Object(name).NewWriter(uploadCtx)
	writer.ContentType = contentType

	written, err := io.Copy(io.MultiWriter(writer, tmp), src)
	if err != nil {
		cancel()
		_ = writer.Close()
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to upload %s to gs://%s: %w", name, s.Bucket, err)
	}
	if err = writer.Close(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to finalize gs://%s/%s: %w", s.Bucket, name, err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	slog.InfoContext(ctx, "stored video", "name", name, "bucket", s.Bucket, "bytes", written, "content_type", contentType)
	return &StoredVideo{
		Name:        name,
		Path:        tmp.Name(),
		ContentType: contentType,
		Size:        written,
		release:     release,
	}, nil
}

func (s *GCSVideoStore) Locate(ctx context.Context, name string) (*VideoLocation, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	_, err := s.StorageClient.Bucket(s.Bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	u, err := s.GenerateSignedURL(ctx, name, s.URLExpiry)
	if err != nil {
		return nil, err
	}
	return &VideoLocation{URL: u}, nil
}

// GenerateSignedURL creates a time limited GET URL for an object of the bucket.
func (s *GCSVideoStore) GenerateSignedURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	}
	if s.SignerEmail != "" && s.IAMClient != nil {
		opts.GoogleAccessID = s.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}
	u, err := s.StorageClient.Bucket(s.Bucket).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.Bucket, objectName, err)
	}
	return u, nil
}
