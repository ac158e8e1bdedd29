package handler_test

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/dipin13k/code-snippets/pkg/handler"
	"github.com/dipin13k/code-snippets/pkg/store/mock"
	"github.com/dipin13k/code-snippets/responses"
	"github.com/dipin13k/code-snippets/snippet"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/nettest"
)

func newTestSocketConn(t *testing.T) net.Conn {
	t.Helper()
	s := mock.MakeStore(t)
	// suppress debug output, serve routines may outlive the test by a tick
	sock := handler.NewSocket(zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)), s)

	ln, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, errAccept := ln.Accept()
			if errAccept != nil {
				return
			}
			go func() {
				defer conn.Close()
				sock.Serve(conn)
			}()
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn net.Conn, route string, request interface{}) {
	t.Helper()
	body, err := json.Marshal(request)
	require.NoError(t, err)
	_, err = fmt.Fprintf(conn, "%s:%d%s", route, len(body), body)
	require.NoError(t, err)
}

// readReply reads one "<length><json>" response off the wire
func readReply(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()
	length := 0
	for {
		b, err := r.ReadByte()
		require.NoError(t, err)
		if b == '{' {
			break
		}
		digit, err := strconv.Atoi(string(b))
		require.NoError(t, err)
		length = length*10 + digit
	}
	reply := make([]byte, length)
	reply[0] = '{'
	_, err := io.ReadFull(r, reply[1:])
	require.NoError(t, err)
	return reply
}

func TestSocket_CRUD(t *testing.T) {
	conn := newTestSocketConn(t)
	reader := bufio.NewReader(conn)

	// multiple requests travel over the same connection
	send(t, conn, "add", mock.MakeFields())

	var created struct {
		Reply responses.Mutation `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &created))
	require.True(t, created.Reply.Success)
	require.NotNil(t, created.Reply.Snippet)

	send(t, conn, "list", struct{}{})

	var listed struct {
		Reply []snippet.Snippet `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &listed))
	require.Len(t, listed.Reply, 1)
	assert.Equal(t, created.Reply.Snippet.ID, listed.Reply[0].ID)

	send(t, conn, "delete", map[string]string{"id": created.Reply.Snippet.ID})

	var deleted struct {
		Reply responses.Mutation `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &deleted))
	assert.True(t, deleted.Reply.Success)
}

func TestSocket_ExportData(t *testing.T) {
	conn := newTestSocketConn(t)
	reader := bufio.NewReader(conn)

	send(t, conn, "add", mock.MakeFields())

	var created struct {
		Reply responses.Mutation `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &created))
	require.True(t, created.Reply.Success)

	send(t, conn, "exportData", struct{}{})

	var exported struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &exported))

	snippets, err := snippet.Decode(exported.Reply)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, created.Reply.Snippet.ID, snippets[0].ID)
}

func TestSocket_UnknownRoute(t *testing.T) {
	conn := newTestSocketConn(t)
	reader := bufio.NewReader(conn)

	send(t, conn, "bogus", struct{}{})

	var reply struct {
		Reply responses.Error `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &reply))
	assert.Equal(t, responses.ErrorCodeUnknownHandler, reply.Reply.Code)
}

func TestSocket_InvalidHeader(t *testing.T) {
	conn := newTestSocketConn(t)
	reader := bufio.NewReader(conn)

	_, err := conn.Write([]byte(`no-length-in-this-header{`))
	require.NoError(t, err)

	var reply struct {
		Reply responses.Error `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(readReply(t, reader), &reply))
	assert.Equal(t, responses.ErrorCodeInvalidHeader, reply.Reply.Code)

	// the server gives up on the connection
	_, err = reader.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}
