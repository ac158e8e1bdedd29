package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/dipin13k/code-snippets/pkg/handler"
)

type socketTransport struct {
	connPool *connectionPool
}

// NewSocketTransport will create a transport that speaks the socket protocol
// on address through a pool of connectionPoolSize tcp connections. A call
// waits up to waitTimeout for a free connection before it gives up.
func NewSocketTransport(address string, connectionPoolSize int, waitTimeout time.Duration) transport {
	return &socketTransport{
		connPool: newConnectionPool(address, connectionPoolSize, waitTimeout),
	}
}

func (st *socketTransport) shutdown() {
	st.connPool.drain()
}

func (st *socketTransport) call(ctx context.Context, route handler.Route, request interface{}, response interface{}) error {
	if st.connPool.drained.Load() {
		return errors.New("connection pool has been drained, client is dead")
	}
	jsonBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "could not marshal request")
	}

	netChan := make(chan net.Conn)
	select {
	case st.connPool.chanConnGet <- netChan:
	case <-st.connPool.chanPoolDone:
		return errors.New("connection pool has been drained, client is dead")
	case <-ctx.Done():
		return ctx.Err()
	}
	conn := <-netChan
	if conn == nil {
		return errors.New("could not get a connection")
	}
	returnConn := func(err error) {
		select {
		case st.connPool.chanConnReturn <- connReturn{conn: conn, err: err}:
		case <-st.connPool.chanPoolDone:
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// write header, on the wire a request looks like "list:2{}"
	jsonBytes = append([]byte(fmt.Sprintf("%s:%d", route, len(jsonBytes))), jsonBytes...)

	written := 0
	for written < len(jsonBytes) {
		n, errWrite := conn.Write(jsonBytes[written:])
		if errWrite != nil {
			returnConn(errWrite)
			return errors.Wrap(errWrite, "failed to send request")
		}
		written += n
	}

	// read the length prefixed response
	responseBytes := []byte{}
	buf := make([]byte, 4096)
	responseLength := 0
	for {
		n, errRead := conn.Read(buf)
		if errRead != nil && errRead != io.EOF {
			returnConn(errRead)
			return errors.Wrap(errRead, "an error occurred while reading the response")
		}
		if n == 0 {
			break
		}
		responseBytes = append(responseBytes, buf[0:n]...)
		if responseLength == 0 {
			for index, b := range responseBytes {
				if b == '{' {
					responseLength, errRead = strconv.Atoi(string(responseBytes[0:index]))
					if errRead != nil {
						returnConn(errRead)
						return errors.Wrap(errRead, "could not read response length")
					}
					responseBytes = responseBytes[index:]
					break
				}
			}
		}
		if responseLength > 0 && len(responseBytes) == responseLength {
			break
		}
	}
	// clear the deadline before the connection goes back into the pool
	_ = conn.SetDeadline(time.Time{})
	returnConn(nil)
	return decodeReply(responseBytes, response)
}
