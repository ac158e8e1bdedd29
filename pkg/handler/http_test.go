package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dipin13k/code-snippets/pkg/handler"
	"github.com/dipin13k/code-snippets/pkg/store/mock"
	"github.com/dipin13k/code-snippets/responses"
	"github.com/dipin13k/code-snippets/snippet"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := mock.MakeStore(t)
	server := httptest.NewServer(handler.NewHTTP(zaptest.NewLogger(t), s))
	t.Cleanup(server.Close)
	return server
}

// post sends a request to the given route and decodes the wrapped reply into out
func post(t *testing.T, server *httptest.Server, route string, request interface{}, out interface{}) {
	t.Helper()

	body, err := json.Marshal(request)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/snippets/"+route, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Reply, out))
}

func TestHTTP_CRUD(t *testing.T) {
	server := newTestServer(t)

	var created responses.Mutation
	post(t, server, "add", mock.MakeFields(), &created)
	require.True(t, created.Success)
	require.NotNil(t, created.Snippet)
	assert.NotEmpty(t, created.Snippet.ID)
	assert.Equal(t, 1, created.Stats.NumberOfSnippets)

	var listed []snippet.Snippet
	post(t, server, "list", struct{}{}, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.Snippet.ID, listed[0].ID)

	var lookup responses.Lookup
	post(t, server, "getById", map[string]string{"id": created.Snippet.ID}, &lookup)
	require.True(t, lookup.Found)
	assert.Equal(t, "Hello World", lookup.Snippet.Title)

	var missing responses.Lookup
	post(t, server, "getById", map[string]string{"id": "no-such-id"}, &missing)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Snippet)

	var updated responses.Mutation
	post(t, server, "update", map[string]string{"id": created.Snippet.ID, "title": "Hello Gopher"}, &updated)
	require.True(t, updated.Success)
	assert.Equal(t, "Hello Gopher", updated.Snippet.Title)
	require.NotNil(t, updated.Snippet.UpdatedAt)

	var deleted responses.Mutation
	post(t, server, "delete", map[string]string{"id": created.Snippet.ID}, &deleted)
	require.True(t, deleted.Success)
	assert.Equal(t, 0, deleted.Stats.NumberOfSnippets)

	post(t, server, "delete", map[string]string{"id": created.Snippet.ID}, &deleted)
	assert.False(t, deleted.Success)
	assert.NotEmpty(t, deleted.ErrorMessage)
}

func TestHTTP_SearchAndTags(t *testing.T) {
	server := newTestServer(t)

	for _, fields := range mock.MakeSearchFields() {
		var created responses.Mutation
		post(t, server, "add", fields, &created)
		require.True(t, created.Success)
	}

	var results []snippet.Snippet
	post(t, server, "search", map[string]string{"query": "javascript"}, &results)
	require.Len(t, results, 1)
	assert.Equal(t, "Array Map", results[0].Title)

	post(t, server, "search", map[string]string{"query": "nomatch"}, &results)
	assert.Empty(t, results)

	var tags []string
	post(t, server, "getAllTags", struct{}{}, &tags)
	assert.Equal(t, []string{"algorithms", "docker", "go", "javascript"}, tags)
}

func TestHTTP_Add_Invalid(t *testing.T) {
	server := newTestServer(t)

	var created responses.Mutation
	post(t, server, "add", map[string]string{"title": "incomplete"}, &created)
	assert.False(t, created.Success)
	assert.NotEmpty(t, created.ErrorMessage)
	assert.Nil(t, created.Snippet)
}

func TestHTTP_ExportImport(t *testing.T) {
	server := newTestServer(t)

	var created responses.Mutation
	post(t, server, "add", mock.MakeFields(), &created)
	require.True(t, created.Success)

	resp, err := http.Post(server.URL+"/snippets/exportData", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	exported, err := snippet.Decode(envelope.Reply)
	require.NoError(t, err)
	require.Len(t, exported, 1)

	// a fresh server imports the exported collection
	restored := newTestServer(t)

	var imported responses.Mutation
	post(t, restored, "importData", map[string]string{"data": string(envelope.Reply)}, &imported)
	require.True(t, imported.Success)
	assert.Equal(t, 1, imported.Stats.NumberOfSnippets)

	var listed []snippet.Snippet
	post(t, restored, "list", struct{}{}, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.Snippet.ID, listed[0].ID)
}

func TestHTTP_UnknownRoute(t *testing.T) {
	server := newTestServer(t)

	var reply responses.Error
	post(t, server, "bogus", struct{}{}, &reply)
	assert.Equal(t, responses.ErrorCodeUnknownHandler, reply.Code)
}

func TestHTTP_BadJSON(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/snippets/list", "application/json", bytes.NewReader([]byte(`{nope`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Reply responses.Error `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, responses.ErrorCodeBadRequest, envelope.Reply.Code)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/snippets/list")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
