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
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
)

// NewTagCommand creates "tag <video>...". Every file is attempted; the
// command fails if any of them failed.
func NewTagCommand(open EnvOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "tag VIDEO...",
		Short: "Tag local video files and store the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context(), true)
			if err != nil {
				return fmt.Errorf("failed to open tag store: %w", err)
			}
			defer env.Close()

			var errs []error
			for _, path := range args {
				res, err := env.Tagger.TagFile(cmd.Context(), path)
				if err != nil {
					cmd.PrintErrf("%s: %v\n", path, err)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Name, strings.Join(res.Tags, ", "))
			}
			return errors.Join(errs...)
		},
	}
}

// NewSearchCommand creates "search <query>".
func NewSearchCommand(open EnvOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Rank videos by the number of tags containing QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := formatterFor(cmd)
			if err != nil {
				return err
			}
			env, err := open(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("failed to open tag store: %w", err)
			}
			defer env.Close()

			results, err := env.Tags.Search(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to search: %w", err)
			}
			out, err := formatter.FormatResults(results)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

// NewStatsCommand creates "stats".
func NewStatsCommand(open EnvOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the tag store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := formatterFor(cmd)
			if err != nil {
				return err
			}
			env, err := open(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("failed to open tag store: %w", err)
			}
			defer env.Close()

			stats, err := env.Tags.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}
			out, err := formatter.FormatStats(stats)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addOutputFlag(cmd)
	return cmd
}

// NewMigrateCommand creates "migrate up|down|version" for the Postgres store.
func NewMigrateCommand() *cobra.Command {
	var databaseURL string

	resolveURL := func() (string, error) {
		if databaseURL != "" {
			return databaseURL, nil
		}
		config, err := loadConfig()
		if err != nil {
			return "", err
		}
		if config.Metadata.DatabaseURL == "" {
			return "", fmt.Errorf("no database URL: pass --database-url or set metadata.database_url")
		}
		return config.Metadata.DatabaseURL, nil
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres tag store schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL, defaults to metadata.database_url")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			if err := services.MigrateUp(url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			if err := services.MigrateDown(url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			version, dirty, err := services.MigrationVersion(url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})
	return cmd
}
