package client

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/dipin13k/code-snippets/pkg/handler"
)

// clientUserAgent identifies this library in server access logs.
const clientUserAgent = "snippets-client"

type httpTransport struct {
	client   *http.Client
	endpoint string
}

// NewHTTPTransport will create a new http transport for the given endpoint and client.
// Caution: the provided endpoint url is not validated, use NewHTTPClient for that.
func NewHTTPTransport(endpoint string, client *http.Client) transport {
	return &httpTransport{
		endpoint: endpoint,
		client:   client,
	}
}

func (ht *httpTransport) shutdown() {
	// nothing to do here
}

func (ht *httpTransport) call(ctx context.Context, route handler.Route, request interface{}, response interface{}) error {
	requestBytes, errMarshal := json.Marshal(request)
	if errMarshal != nil {
		return errors.Wrap(errMarshal, "failed to encode request")
	}
	req, errNewRequest := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		ht.endpoint+"/"+string(route),
		bytes.NewBuffer(requestBytes),
	)
	if errNewRequest != nil {
		return errors.Wrap(errNewRequest, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", clientUserAgent)
	httpResponse, errDo := ht.client.Do(req)
	if errDo != nil {
		return errors.Wrapf(errDo, "%s request failed", route)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return errors.Errorf("non 200 reply: %s", httpResponse.Status)
	}
	responseBytes, errRead := io.ReadAll(httpResponse.Body)
	if errRead != nil {
		return errors.Wrap(errRead, "failed to read reply")
	}
	return decodeReply(responseBytes, response)
}
