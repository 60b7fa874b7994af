package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt/topic"
)

// HandlerFunc processes one inbound message.
type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

// TypedHandlerFunc receives the mission id taken from the topic and the decoded payload.
type TypedHandlerFunc[T any] func(ctx context.Context, missionID string, msg *T) error

// JSONAdapter decodes the payload into T and resolves the mission id from the topic.
// Malformed input is reported as a validation error.
func JSONAdapter[T any](topics *topic.TopicBuilder, handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx context.Context, t string, payload []byte) error {
		missionID, _, err := topics.Parse(t)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrValidation, err)
		}

		msg := new(T)
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(msg); err != nil {
			return model.Validationf("json unmarshal failed: %v", err)
		}

		return handler(ctx, missionID, msg)
	}
}
