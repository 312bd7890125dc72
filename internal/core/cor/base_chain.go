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
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands in order. Each command gets a child span of
// the chain span. After every command the value under CtxOut is moved to
// CtxIn for the next one.
//
// By default the chain stops at the first command that records an error.
// Commands that report IsExecutable false are skipped without failing the
// chain, which lets a workflow ignore messages it has no work for.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the commands in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only needs a Go context; inputs are checked per command.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}

		commandCtx, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandCtx)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)

			if err, failed := chCtx.GetErrors()[command.GetName()]; failed {
				commandSpan.RecordError(err)
				commandSpan.SetStatus(codes.Error, "command failed")
			} else {
				commandSpan.SetStatus(codes.Ok, "command completed")
			}
		} else {
			slog.DebugContext(outerCtx, "skipping command", "chain", c.GetName(), "command", command.GetName())
			commandSpan.SetStatus(codes.Unset, "command not executable")
		}
		commandSpan.End()

		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if chCtx.HasErrors() {
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(outerCtx, 1)
		}
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
		return
	}
	if c.SuccessCounter != nil {
		c.SuccessCounter.Add(outerCtx, 1)
	}
	chainSpan.SetStatus(codes.Ok, "chain completed successfully")
}
