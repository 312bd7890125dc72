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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
	"github.com/jaycherian/gcp-go-video-tagging/internal/telemetry"
)

// FileTagger tags a local video and stores the result.
type FileTagger interface {
	TagFile(ctx context.Context, path string) (*model.TaggingResult, error)
}

// Env is what the subcommands work against.
type Env struct {
	Config *cloud.Config
	Tags   services.TagStore
	Tagger FileTagger
	close  func()
}

// Close releases everything the environment opened.
func (e *Env) Close() {
	if e.close != nil {
		e.close()
	}
}

// EnvOpener builds an Env. withTagger is false for commands that only read
// the store, so no decoder or model client is created for them.
type EnvOpener func(ctx context.Context, withTagger bool) (*Env, error)

// NewRootCommand assembles tagctl. A nil opener uses the configuration files.
func NewRootCommand(open EnvOpener) *cobra.Command {
	var configDir, runtime string

	root := &cobra.Command{
		Use:           "tagctl",
		Short:         "Tag videos and query the tag store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configDir != "" {
				if err := os.Setenv(cloud.EnvConfigFilePrefix, configDir); err != nil {
					return err
				}
			}
			if runtime != "" {
				return os.Setenv(cloud.EnvConfigRuntime, runtime)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "Directory holding .env.toml files")
	root.PersistentFlags().StringVar(&runtime, "runtime", "local", "Configuration overlay to apply")

	if open == nil {
		open = openEnv
	}
	root.AddCommand(NewTagCommand(open))
	root.AddCommand(NewSearchCommand(open))
	root.AddCommand(NewStatsCommand(open))
	root.AddCommand(NewMigrateCommand())
	return root
}

// loadConfig reads the configuration and routes logs to stderr so command
// output stays clean.
func loadConfig() (*cloud.Config, error) {
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	handler, err := telemetry.NewHandler(cloud.Logging{Format: "text", Level: config.Logging.Level}, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(handler))
	return config, nil
}

func openEnv(ctx context.Context, withTagger bool) (_ *Env, err error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	env := &Env{Config: config}

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return nil, err
	}
	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	closers := []func(){clients.Close, func() { _ = shutdown(context.Background()) }}
	env.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			env.Close()
		}
	}()

	tags, err := services.NewTagStore(ctx, config, clients)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() { _ = tags.Close() })
	if err := tags.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	env.Tags = tags

	if withTagger {
		sampler, err := services.NewSampler(config, clients)
		if err != nil {
			return nil, err
		}
		// Local files are tagged in place, so no video store is needed.
		env.Tagger = services.NewTaggingService(nil, tags, sampler, config.Server.ProcessTimeout())
	}
	return env, nil
}
