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

package inference

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
)

// ChatCompleter is the part of *openai.Client the captioner needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICaptioner captions frames through any OpenAI compatible chat endpoint
// with vision support (OpenAI, Ollama, vLLM).
type OpenAICaptioner struct {
	client      ChatCompleter
	model       string
	prompt      string
	maxTokens   int
	temperature float32
}

// NewOpenAIClient builds a client from the [openai] section. The API key is
// read from the environment variable it names; local servers accept an empty key.
func NewOpenAIClient(cfg cloud.OpenAI) *openai.Client {
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	clientConfig := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func NewOpenAICaptioner(client ChatCompleter, cfg cloud.OpenAI) *OpenAICaptioner {
	prompt := cfg.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultCaptionPrompt
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}
	return &OpenAICaptioner{
		client:      client,
		model:       cfg.Model,
		prompt:      prompt,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

func (o *OpenAICaptioner) Caption(ctx context.Context, frame image.Image) (string, error) {
	data, err := EncodeJPEG(frame)
	if err != nil {
		return "", err
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: o.prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    "data:" + JPEGMimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
						Detail: openai.ImageURLDetailLow,
					}},
				},
			},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai caption request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai caption response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
