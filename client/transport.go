package client

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/dipin13k/code-snippets/pkg/handler"
	"github.com/dipin13k/code-snippets/responses"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type transport interface {
	call(ctx context.Context, route handler.Route, request interface{}, response interface{}) error
	shutdown()
}

// decodeReply unwraps a `{"reply": ...}` envelope into response. A reply that
// does not fit response is retried as a remote responses.Error.
func decodeReply(responseBytes []byte, response interface{}) error {
	var envelope struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	if err := json.Unmarshal(responseBytes, &envelope); err != nil {
		return errors.Wrapf(err, "could not unmarshal response envelope: %q", string(responseBytes))
	}
	if err := json.Unmarshal(envelope.Reply, response); err != nil {
		remoteErr := responses.Error{}
		if errRemote := json.Unmarshal(envelope.Reply, &remoteErr); errRemote == nil && remoteErr.Code != 0 {
			return remoteErr
		}
		return errors.Wrapf(err, "could not unmarshal reply: %q", string(envelope.Reply))
	}
	return nil
}
