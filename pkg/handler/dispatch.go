package handler

import (
	"context"
	"time"

	"github.com/dipin13k/code-snippets/pkg/metrics"
	"github.com/dipin13k/code-snippets/pkg/store"
	"github.com/dipin13k/code-snippets/requests"
	"github.com/dipin13k/code-snippets/responses"
	"github.com/dipin13k/code-snippets/snippet"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sourceWebServer    = "webserver"
	sourceSocketServer = "socketserver"
)

// dispatcher maps routes onto store operations, shared by the web server and
// the socket server.
type dispatcher struct {
	l     *zap.Logger
	store *store.Store
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (d *dispatcher) handleRequest(ctx context.Context, route Route, jsonBytes []byte, source string) ([]byte, error) {
	start := time.Now()

	reply, err := d.executeRequest(ctx, route, jsonBytes, source)
	result := "success"
	if err != nil {
		result = "error"
	}

	metrics.ServiceRequestCounter.WithLabelValues(string(route), result, source).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), result, source).Observe(time.Since(start).Seconds())

	return reply, err
}

func (d *dispatcher) executeRequest(ctx context.Context, route Route, jsonBytes []byte, source string) (replyBytes []byte, err error) {
	var (
		reply             interface{}
		jsonErr           error
		processIfJSONIsOk = func(err error, processingFunc func()) {
			if err != nil {
				jsonErr = err
				return
			}
			processingFunc()
		}
	)
	metrics.StoreRequestCounter.WithLabelValues(source).Inc()

	// requests without parameters may come with an empty body
	if len(jsonBytes) == 0 {
		jsonBytes = []byte("{}")
	}

	// handle and process
	switch route {
	// case RouteExportData: // This case is handled prior to handleRequest being called,
	// since the resulting bytes are written directly into the http.ResponseWriter / net.Conn
	case RouteList:
		listRequest := &requests.List{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &listRequest), func() {
			reply = d.store.List()
		})
	case RouteGetByID:
		getRequest := &requests.Get{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &getRequest), func() {
			found, ok := d.store.GetByID(getRequest.ID)
			lookup := &responses.Lookup{Found: ok}
			if ok {
				lookup.Snippet = &found
			}
			reply = lookup
		})
	case RouteAdd:
		addRequest := &requests.Add{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &addRequest), func() {
			start := time.Now()
			created, ok := d.store.Add(ctx, addRequest.Fields)
			reply = d.mutation(start, &created, ok, "add rejected: invalid fields or persist failure")
		})
	case RouteUpdate:
		updateRequest := &requests.Update{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &updateRequest), func() {
			start := time.Now()
			updated, ok := d.store.Update(ctx, updateRequest.ID, updateRequest.Patch)
			reply = d.mutation(start, &updated, ok, "update rejected: unknown id or persist failure")
		})
	case RouteDelete:
		deleteRequest := &requests.Delete{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &deleteRequest), func() {
			start := time.Now()
			ok := d.store.Delete(ctx, deleteRequest.ID)
			reply = d.mutation(start, nil, ok, "delete rejected: unknown id or persist failure")
		})
	case RouteSearch:
		searchRequest := &requests.Search{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &searchRequest), func() {
			reply = d.store.Search(searchRequest.Query)
		})
	case RouteGetAllTags:
		tagsRequest := &requests.Tags{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &tagsRequest), func() {
			reply = d.store.Tags()
		})
	case RouteImportData:
		importRequest := &requests.Import{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, &importRequest), func() {
			start := time.Now()
			ok := d.store.Import(ctx, importRequest.Data)
			reply = d.mutation(start, nil, ok, "import rejected: invalid data or persist failure")
		})
	default:
		reply = responses.NewError(responses.ErrorCodeUnknownHandler, "unknown handler: "+string(route))
	}

	// error handling
	if jsonErr != nil {
		d.l.Error("could not read incoming json", zap.Error(jsonErr))
		reply = responses.NewError(responses.ErrorCodeBadRequest, "could not read incoming json "+jsonErr.Error())
	}

	return d.encodeReply(reply)
}

func (d *dispatcher) mutation(start time.Time, created *snippet.Snippet, ok bool, failureMessage string) *responses.Mutation {
	reply := &responses.Mutation{
		Success: ok,
	}
	if ok {
		reply.Snippet = created
	} else {
		reply.ErrorMessage = failureMessage
	}
	reply.Stats.NumberOfSnippets = d.store.Len()
	reply.Stats.OwnRuntime = time.Since(start).Seconds()
	return reply
}

// encodeReply takes an interface and encodes it as JSON
// it returns the resulting JSON and a marshalling error
func (d *dispatcher) encodeReply(reply interface{}) (replyBytes []byte, err error) {
	replyBytes, err = json.Marshal(map[string]interface{}{
		"reply": reply,
	})
	if err != nil {
		d.l.Error("could not encode reply", zap.Error(err))
	}
	return
}
