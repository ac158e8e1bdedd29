package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/dipin13k/code-snippets/pkg/handler"
	"github.com/dipin13k/code-snippets/requests"
	"github.com/dipin13k/code-snippets/responses"
	"github.com/dipin13k/code-snippets/snippet"
)

// Client a snippet server client
type Client struct {
	t transport
}

// New creates a client for the given transport
func New(t transport) *Client {
	return &Client{t: t}
}

// NewHTTPClient creates a client for the web server on the given endpoint,
// e.g. http://localhost:8080/snippets
func NewHTTPClient(endpoint string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid endpoint %q", endpoint)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("invalid endpoint %q, expecting http(s)://host[:port]/path", endpoint)
	}
	return New(NewHTTPTransport(endpoint, http.DefaultClient)), nil
}

// NewSocketClient creates a client that talks to the socket server on address
func NewSocketClient(address string, connectionPoolSize int, waitTimeout time.Duration) *Client {
	return New(NewSocketTransport(address, connectionPoolSize, waitTimeout))
}

// Close shuts the transport down, the client must not be used afterwards
func (c *Client) Close() {
	c.t.shutdown()
}

// List fetches the whole collection in insertion order
func (c *Client) List(ctx context.Context) (response []snippet.Snippet, err error) {
	response = []snippet.Snippet{}
	err = c.t.call(ctx, handler.RouteList, &requests.List{}, &response)
	return
}

// GetByID looks a snippet up by its id
func (c *Client) GetByID(ctx context.Context, id string) (response *responses.Lookup, err error) {
	response = &responses.Lookup{}
	err = c.t.call(ctx, handler.RouteGetByID, &requests.Get{ID: id}, response)
	return
}

// Add stores a new snippet
func (c *Client) Add(ctx context.Context, fields snippet.Fields) (response *responses.Mutation, err error) {
	response = &responses.Mutation{}
	err = c.t.call(ctx, handler.RouteAdd, &requests.Add{Fields: fields}, response)
	return
}

// Update patches the snippet with the given id
func (c *Client) Update(ctx context.Context, id string, patch snippet.Patch) (response *responses.Mutation, err error) {
	response = &responses.Mutation{}
	err = c.t.call(ctx, handler.RouteUpdate, &requests.Update{ID: id, Patch: patch}, response)
	return
}

// Delete removes the snippet with the given id
func (c *Client) Delete(ctx context.Context, id string) (response *responses.Mutation, err error) {
	response = &responses.Mutation{}
	err = c.t.call(ctx, handler.RouteDelete, &requests.Delete{ID: id}, response)
	return
}

// Search finds the snippets matching query, an empty query matches all
func (c *Client) Search(ctx context.Context, query string) (response []snippet.Snippet, err error) {
	response = []snippet.Snippet{}
	err = c.t.call(ctx, handler.RouteSearch, &requests.Search{Query: query}, &response)
	return
}

// GetAllTags fetches the distinct tags of the collection
func (c *Client) GetAllTags(ctx context.Context) (response []string, err error) {
	response = []string{}
	err = c.t.call(ctx, handler.RouteGetAllTags, &requests.Tags{}, &response)
	return
}

// ExportData downloads the collection
func (c *Client) ExportData(ctx context.Context) (response []snippet.Snippet, err error) {
	response = []snippet.Snippet{}
	err = c.t.call(ctx, handler.RouteExportData, &requests.Export{}, &response)
	return
}

// ImportData replaces the collection on the server with data,
// a json array as produced by ExportData
func (c *Client) ImportData(ctx context.Context, data string) (response *responses.Mutation, err error) {
	response = &responses.Mutation{}
	err = c.t.call(ctx, handler.RouteImportData, &requests.Import{Data: data}, response)
	return
}
