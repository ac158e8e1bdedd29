package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/dipin13k/code-snippets/pkg/store"
	httputils "github.com/foomo/keel/utils/net/http"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	HTTP struct {
		dispatcher
		path string
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns a shiny new web server for the given store
func NewHTTP(l *zap.Logger, store *store.Store, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		dispatcher: dispatcher{
			l:     l.Named("http"),
			store: store,
		},
		path: "/snippets",
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimSuffix(v, "/")
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return
	}

	jsonBytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
		return
	}

	route := Route(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	if route == RouteExportData {
		// buffered, a stream error after the header is unrecoverable
		var buf bytes.Buffer
		if errExport := h.store.WriteExport(r.Context(), &buf); errExport != nil {
			httputils.ServerError(h.l, w, r, http.StatusInternalServerError, errors.Wrap(errExport, "failed to export collection"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf.Bytes())
		return
	}

	reply, errReply := h.handleRequest(r.Context(), route, jsonBytes, sourceWebServer)
	if errReply != nil {
		http.Error(w, errReply.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(reply)
}
