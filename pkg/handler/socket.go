package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/dipin13k/code-snippets/pkg/metrics"
	"github.com/dipin13k/code-snippets/pkg/store"
	"github.com/dipin13k/code-snippets/responses"
	"go.uber.org/zap"
)

type Socket struct {
	dispatcher
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewSocket returns a shiny new socket server
func NewSocket(l *zap.Logger, store *store.Store) *Socket {
	inst := &Socket{
		dispatcher: dispatcher{
			l:     l.Named("socket"),
			store: store,
		},
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Serve speaks the length prefixed request protocol on the given connection:
// a header "<route>:<jsonLength>" terminated by the opening brace of the
// request json, answered with "<length><json>". The connection stays open
// between requests.
func (h *Socket) Serve(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				if !errors.Is(err, io.EOF) {
					h.l.Error("panic in handle connection", zap.Error(err))
				}
			} else {
				h.l.Error("panic in handle connection", zap.String("error", fmt.Sprint(r)))
			}
		}
	}()

	h.l.Debug("handling new connection", zap.String("remote", conn.RemoteAddr().String()))
	metrics.NumSocketsGauge.WithLabelValues(conn.RemoteAddr().String()).Inc()
	defer metrics.NumSocketsGauge.WithLabelValues(conn.RemoteAddr().String()).Dec()

	var (
		headerBuffer [1]byte
		header       = ""
	)
	for {
		// read the header byte by byte until the json starts
		if _, err := conn.Read(headerBuffer[0:]); err != nil {
			h.l.Debug("looks like the client closed the connection", zap.Error(err))
			return
		}
		if headerBuffer[0] != '{' {
			header += string(headerBuffer[0:])
			continue
		}

		route, jsonLength, err := h.parseHeader(header)
		header = ""
		if err != nil {
			h.l.Error("invalid request could not read header", zap.Error(err))
			encodedErr, errEncode := h.encodeReply(responses.NewError(responses.ErrorCodeInvalidHeader, "invalid header "+err.Error()))
			if errEncode == nil {
				h.writeResponse(conn, encodedErr)
			} else {
				h.l.Error("could not respond to invalid request", zap.Error(errEncode))
			}
			return
		}
		if jsonLength <= 0 {
			h.l.Error("can not read empty json")
			return
		}
		h.l.Debug("found json", zap.Int("length", jsonLength))

		// the opening brace is already consumed
		jsonBytes := make([]byte, jsonLength)
		jsonBytes[0] = '{'
		read := 1
		for read < jsonLength {
			n, errRead := conn.Read(jsonBytes[read:jsonLength])
			if errRead != nil {
				h.l.Error("could not read json - giving up with this client connection", zap.Error(errRead))
				return
			}
			read += n
		}
		h.l.Debug("read json", zap.Int("length", len(jsonBytes)))

		h.writeResponse(conn, h.execute(route, jsonBytes))
		// note: connection remains open
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *Socket) parseHeader(header string) (route Route, jsonLength int, err error) {
	headerParts := strings.Split(header, ":")
	if len(headerParts) != 2 {
		return "", 0, errors.New("invalid header")
	}
	jsonLength, err = strconv.Atoi(headerParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("could not parse length in header: %q", header)
	}
	return Route(headerParts[0]), jsonLength, nil
}

func (h *Socket) execute(route Route, jsonBytes []byte) (reply []byte) {
	h.l.Debug("incoming json buffer", zap.Int("length", len(jsonBytes)))

	ctx := context.Background()

	if route == RouteExportData {
		var b bytes.Buffer
		if err := h.store.WriteExport(ctx, &b); err != nil {
			h.l.Error("failed to write export", zap.Error(err))
			if encodedErr, errEncode := h.encodeReply(responses.NewError(responses.ErrorCodeInternal, "internal error "+err.Error())); errEncode == nil {
				return encodedErr
			}
			return nil
		}
		return b.Bytes()
	}

	reply, err := h.handleRequest(ctx, route, jsonBytes, sourceSocketServer)
	if err != nil {
		h.l.Error("request failed", zap.Error(err))
	}
	return reply
}

func (h *Socket) writeResponse(conn net.Conn, reply []byte) {
	headerBytes := []byte(strconv.Itoa(len(reply)))
	reply = append(headerBytes, reply...)
	h.l.Debug("replying", zap.Int("length", len(reply)))
	n, err := conn.Write(reply)
	if err != nil {
		h.l.Error("could not write reply", zap.Error(err))
		return
	}
	if n < len(reply) {
		h.l.Error("write too short",
			zap.Int("got", n),
			zap.Int("expected", len(reply)),
		)
		return
	}
	h.l.Debug("replied. waiting for next request on open connection")
}
