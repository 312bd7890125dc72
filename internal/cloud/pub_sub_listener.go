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
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener runs a command for every message pulled from a
// subscription. A message is acked only when the command leaves no errors in
// its context; otherwise it is nacked and Pub/Sub redelivers it.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}, nil
}

// SetCommand sets the command once; later calls are ignored.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in a background goroutine until ctx is done.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening for messages", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("msg.id", msg.ID))

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))
			defer chainCtx.Close()

			m.command.Execute(chainCtx)

			if chainCtx.HasErrors() {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.ErrorContext(spanCtx, "error executing chain", "command", name, "error", e)
				}
				msg.Nack()
				return
			}
			span.SetStatus(codes.Ok, "success")
			msg.Ack()
		})

		if err != nil {
			slog.Error("error receiving messages", "subscription", m.subscription.String(), "error", err)
		}
	}()
}
