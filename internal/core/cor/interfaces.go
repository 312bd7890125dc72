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

// Package cor (Chain of Responsibility) is the small workflow engine behind
// bucket-triggered tagging. A Chain runs Commands in order over a shared
// Context; the output a command stores under CtxOut becomes the next
// command's CtxIn.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	CtxIn  = "__IN__"  // Key of the current command's input.
	CtxOut = "__OUT__" // Key of the current command's output.
)

// Context is the state shared by every command of one chain execution.
type Context interface {
	// SetContext replaces the Go context, used by chains to nest spans.
	SetContext(context context.Context)
	GetContext() context.Context

	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records a failure under the command name that produced it.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool
	// Err joins the recorded errors, nil when there are none.
	Err() error

	// AddTempFile registers a path to delete on Close.
	AddTempFile(file string)
	GetTempFiles() []string
	Close()
}

type Executable interface {
	Execute(context Context)
}

// Command is one step of a chain, instrumented with a tracer and counters.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable lets a command opt out of a run, e.g. when its input is missing.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other commands.
type Chain interface {
	Command

	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}
