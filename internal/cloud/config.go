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

// Package cloud defines the application configuration, loaded from TOML files,
// and the container of Google Cloud clients built from it.
//
// Structs:
//   - Server: HTTP listener settings and upload limits.
//   - Storage: where uploaded videos live (local directory or GCS bucket).
//   - Metadata: which tag store backend to use and how to reach it.
//   - Vision: sampling limits, decoder paths, model selection and the color palette.
//   - PromptTemplates: prompts sent to Gemini for captions and detections.
//   - VertexAiLLMModel: a rate-limited Gemini model definition.
//   - OpenAI: an OpenAI-compatible captioning endpoint.
//   - TopicSubscription: a Pub/Sub subscription that triggers bucket tagging.
//   - Telemetry, Logging: observability switches.
//   - Config: the top-level struct aggregating all of the above.
package cloud

import (
	"time"

	"google.golang.org/genai"
)

// DefaultSafetySettings leaves every harm category unblocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Server holds the HTTP listener settings.
type Server struct {
	Port                     int `toml:"port"`                        // Port to listen on.
	ReadHeaderTimeoutSeconds int `toml:"read_header_timeout_seconds"` // http.Server ReadHeaderTimeout.
	ReadTimeoutSeconds       int `toml:"read_timeout_seconds"`        // http.Server ReadTimeout; must cover the largest upload on a slow link.
	WriteTimeoutSeconds      int `toml:"write_timeout_seconds"`       // http.Server WriteTimeout; counts from the end of the headers, so it covers the upload and a full tagging run.
	ProcessTimeoutSeconds    int `toml:"process_timeout_seconds"`     // Upper bound for one tagging run, zero disables it.
	MaxUploadMB              int `toml:"max_upload_mb"`               // Largest accepted upload.
}

// ReadHeaderTimeout returns the header read timeout as a duration.
func (s Server) ReadHeaderTimeout() time.Duration {
	return time.Duration(s.ReadHeaderTimeoutSeconds) * time.Second
}

// ReadTimeout returns the read timeout as a duration.
func (s Server) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (s Server) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// ProcessTimeout returns the tagging timeout, zero when disabled.
func (s Server) ProcessTimeout() time.Duration {
	return time.Duration(s.ProcessTimeoutSeconds) * time.Second
}

// MaxUploadBytes converts MaxUploadMB to bytes.
func (s Server) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// Storage selects where uploaded video files are kept.
type Storage struct {
	Backend             string `toml:"backend"`                // "local" or "gcs".
	VideoDir            string `toml:"video_dir"`              // Directory for the local backend.
	Bucket              string `toml:"bucket"`                 // Bucket for the gcs backend.
	SignedURLTTLMinutes int    `toml:"signed_url_ttl_minutes"` // Lifetime of signed download URLs.
	TempDir             string `toml:"temp_dir"`               // Scratch space for downloads, OS default when empty.
}

// Metadata selects the tag store backend.
type Metadata struct {
	Backend     string `toml:"backend"`      // "json", "postgres" or "bigquery".
	File        string `toml:"file"`         // JSON file for the json backend.
	DatabaseURL string `toml:"database_url"` // Postgres connection string.
	MaxConns    int32  `toml:"max_conns"`    // Postgres pool size.
	Dataset     string `toml:"dataset"`      // BigQuery dataset.
	Table       string `toml:"table"`        // BigQuery table.
}

// PaletteColor is one named HSV range in 8-bit OpenCV units (H 0-179).
type PaletteColor struct {
	Name  string `toml:"name"`
	Lower [3]int `toml:"lower"`
	Upper [3]int `toml:"upper"`
}

// Vision controls the tagging pipeline.
type Vision struct {
	MaxFrames     int            `toml:"max_frames"`     // Frames sampled per video.
	Width         int            `toml:"width"`          // Working frame width.
	Height        int            `toml:"height"`         // Working frame height.
	MinConfidence float64        `toml:"min_confidence"` // Detections below this are ignored; 0 keeps all.
	MatchPercent  float64        `toml:"match_percent"`  // Share of pixels a palette color must exceed.
	FFmpegPath    string         `toml:"ffmpeg_path"`
	FFProbePath   string         `toml:"ffprobe_path"`
	Captioner     string         `toml:"captioner"`      // "gemini", "openai" or "static".
	Detector      string         `toml:"detector"`       // "gemini" or "none".
	AgentModel    string         `toml:"agent_model"`    // Key into [agent_models] for gemini adapters.
	StaticCaption string         `toml:"static_caption"` // Caption used by the static captioner.
	Palette       []PaletteColor `toml:"palette"`
}

// PromptTemplates holds the prompts sent with each frame.
type PromptTemplates struct {
	CaptionPrompt   string `toml:"caption"`
	DetectionPrompt string `toml:"detection"`
}

// VertexAiLLMModel configures one Gemini model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // Burst of requests allowed per second.
}

// OpenAI configures an OpenAI-compatible vision endpoint (OpenAI, Ollama, vLLM).
type OpenAI struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	APIKeyEnv   string  `toml:"api_key_env"` // Name of the env var holding the key.
	MaxTokens   int     `toml:"max_tokens"`
	Prompt      string  `toml:"prompt"`
	Temperature float32 `toml:"temperature"`
}

// TopicSubscription names a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Telemetry selects the OpenTelemetry exporter.
type Telemetry struct {
	Exporter string `toml:"exporter"` // "gcp" or "none".
}

// Logging selects the slog handler.
type Logging struct {
	Format string `toml:"format"` // "json" (Cloud Logging) or "text" (tint console).
	Level  string `toml:"level"`  // debug, info, warn or error.
	File   string `toml:"file"`   // Optional file that receives a copy of every line.
}

// Config is the root of the TOML configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Server             Server                       `toml:"server"`
	Storage            Storage                      `toml:"storage"`
	Metadata           Metadata                     `toml:"metadata"`
	Vision             Vision                       `toml:"vision"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	OpenAI             OpenAI                       `toml:"openai"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	Logging            Logging                      `toml:"logging"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name, e.g. "UploadTopic".
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by a logical name, e.g. "vision-flash".
}

// NewConfig returns a Config with the defaults of a local single-process
// deployment. Values from TOML files override these.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.Name = "video-tagging-server"
	c.Server = Server{
		Port:                     5000,
		ReadHeaderTimeoutSeconds: 10,
		ReadTimeoutSeconds:       900,
		WriteTimeoutSeconds:      1500,
		MaxUploadMB:              512,
	}
	c.Storage = Storage{Backend: "local", VideoDir: "videos", SignedURLTTLMinutes: 15}
	c.Metadata = Metadata{Backend: "json", File: "metadata.json", MaxConns: 4}
	c.Vision = Vision{
		MaxFrames:    30,
		Width:        640,
		Height:       360,
		MatchPercent: 5,
		FFmpegPath:   "ffmpeg",
		FFProbePath:  "ffprobe",
		Captioner:    "static",
		Detector:     "none",
	}
	c.Telemetry = Telemetry{Exporter: "none"}
	c.Logging = Logging{Format: "json", Level: "info"}
	return c
}
