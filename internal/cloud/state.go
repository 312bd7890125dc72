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
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients holds the Google Cloud clients the configuration asks for.
// Clients that are not needed stay nil, so a local deployment that keeps
// videos on disk and tags in a JSON file needs no credentials at all.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	BiqQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient
	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// Close releases every client that was opened.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NeedsStorage reports whether GCS is used for videos.
func (c *Config) NeedsStorage() bool {
	return c.Storage.Backend == "gcs" || len(c.TopicSubscriptions) > 0
}

// NeedsGenAI reports whether a Gemini model backs the captioner or detector.
func (c *Config) NeedsGenAI() bool {
	return c.Vision.Captioner == "gemini" || c.Vision.Detector == "gemini"
}

// NewCloudServiceClients opens the clients required by config.
func NewCloudServiceClients(ctx context.Context, config *Config) (_ *ServiceClients, err error) {
	cloud := &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			cloud.Close()
		}
	}()

	if config.NeedsStorage() {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
	}
	if config.Storage.Backend == "gcs" && config.Application.SignerServiceAccountEmail != "" {
		if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			return nil, fmt.Errorf("iam credentials client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return nil, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	if config.Metadata.Backend == "bigquery" {
		if cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("bigquery client: %w", err)
		}
	}

	if config.NeedsGenAI() {
		slog.Info("creating genai client",
			"project", config.Application.GoogleProjectId,
			"location", config.Application.GoogleLocation)
		cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return nil, fmt.Errorf("genai client: %w", err)
		}
		for key, values := range config.AgentModels {
			cloud.AgentModels[key] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, cloud.GenAIClient.Models, values.RateLimit)
		}
	}

	return cloud, nil
}

// NewGenerateContentConfig maps a configured model onto genai settings.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		TopK:             genai.Ptr[float32](values.TopK),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.SystemInstructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return cfg
}
