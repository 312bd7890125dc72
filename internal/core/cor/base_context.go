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

package cor

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// BaseContext is the map-backed Context. It is owned by a single chain
// execution and is not safe for concurrent use.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	tempFiles []string
	context   context.Context
}

func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close deletes every registered temp file. Files already gone are ignored.
func (c *BaseContext) Close() {
	for _, file := range c.tempFiles {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get returns nil for unknown keys.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// Err joins every recorded error, or returns nil.
func (c *BaseContext) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(c.errors))
	for name, err := range c.errors {
		errs = append(errs, &CommandError{Command: name, Err: err})
	}
	return errors.Join(errs...)
}

// CommandError ties an error to the command that recorded it.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return e.Command + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
