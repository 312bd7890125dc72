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

// Package cloud helpers for hierarchical configuration loading and for calling
// Gemini with retries.
//
// Functions:
//   - LoadConfig: reads `.env.toml` and then overlays `.env.<runtime>.toml`
//     from the directory named by GCP_CONFIG_PREFIX.
//   - GenerateMultiModalResponse: sends content to a quota aware model, retrying
//     up to MaxRetries times and recording token usage.
//   - NewImageContent: builds a user turn holding a prompt and one image.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"              // Base name of configuration files.
	ConfigFileExtension = ".toml"             // Extension of configuration files.
	ConfigSeparator     = "."                 // Separator between base name and runtime.
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Directory holding the configuration files.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Runtime overlay to apply, e.g. "local" or "test".
	MaxRetries          = 3                   // Attempts after the first failed model call.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime overlay paths LoadConfig reads.
func ConfigFiles() (base string, overlay string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtime := os.Getenv(EnvConfigRuntime)
	if runtime == "" {
		runtime = "test"
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	overlay = prefix + ConfigFileBaseName + ConfigSeparator + runtime + ConfigFileExtension
	return base, overlay
}

// LoadConfig decodes the base file and then the runtime overlay into
// baseConfig. Missing files are skipped; a file that fails to decode is an
// error.
func LoadConfig(baseConfig interface{}) error {
	base, overlay := ConfigFiles()
	for _, name := range []string{base, overlay} {
		if !fileExists(name) {
			slog.Debug("configuration file not found, skipping", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
		slog.Info("loaded configuration", "file", name)
	}
	return nil
}

// GenerateMultiModalResponse calls the model and concatenates the text of
// every candidate part. Markdown code fences around JSON answers are removed.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {

	var resp *genai.GenerateContentResponse
	for try := 0; ; try++ {
		resp, err = model.GenerateContent(ctx, content)
		if err == nil {
			break
		}
		if try >= MaxRetries || ctx.Err() != nil {
			return "", err
		}
		if retryCounter != nil {
			retryCounter.Add(ctx, 1)
		}
		slog.WarnContext(ctx, "model call failed, retrying", "model", model.ModelName, "attempt", try+1, "error", err)
	}

	if resp.UsageMetadata != nil {
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return TrimCodeFence(sb.String()), nil
}

// TrimCodeFence strips a surrounding ```json ... ``` block.
func TrimCodeFence(in string) string {
	out := strings.TrimSpace(in)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

// NewImageContent builds a single user turn with a text prompt and an inline image.
func NewImageContent(prompt string, image []byte, mimeType string) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
