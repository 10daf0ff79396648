package server

import (
	"encoding/json"
	"net/http"

	"github.com/ValentinKolb/dTodo/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// mounter is the part of the server transport the REST api needs.
type mounter interface {
	Mount(pattern string, handler http.Handler)
}

// postTodoRequest is the body of POST /todo.
type postTodoRequest struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Title string `json:"title"`
}

// restAPI exposes the todo operations as plain HTTP routes. Every route is
// translated into a message and handled by the same adapter as RPC requests.
type restAPI struct {
	adapter IRPCServerAdapter
}

func (api *restAPI) mount(m mounter) {
	m.Mount("POST /todo", http.HandlerFunc(api.postTodo))
	m.Mount("GET /todo/{name}/{date}", http.HandlerFunc(api.getTodo))
	m.Mount("DELETE /crash-todo/{name}", http.HandlerFunc(api.crashTodo))
	m.Mount("POST /flush-todo/{name}", http.HandlerFunc(api.flushTodo))
	m.Mount("GET /health", http.HandlerFunc(api.health))
	m.Mount("GET /metrics", http.HandlerFunc(api.writeMetrics))
}

func (api *restAPI) postTodo(w http.ResponseWriter, r *http.Request) {
	var body postTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp := api.adapter.Handle(r.Context(), common.NewPostRequest(body.Name, body.Date, body.Title))
	if writeError(w, resp) {
		return
	}
	_, _ = w.Write([]byte("Entry added"))
}

func (api *restAPI) getTodo(w http.ResponseWriter, r *http.Request) {
	resp := api.adapter.Handle(r.Context(), common.NewGetRequest(r.PathValue("name"), r.PathValue("date")))
	if writeError(w, resp) {
		return
	}
	entries := resp.Entries
	if entries == nil {
		entries = []common.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		Logger.Warningf("Failed to write response: %v", err)
	}
}

func (api *restAPI) crashTodo(w http.ResponseWriter, r *http.Request) {
	resp := api.adapter.Handle(r.Context(), common.NewCrashRequest(r.PathValue("name")))
	if writeError(w, resp) {
		return
	}
	_, _ = w.Write([]byte("Worker crashed"))
}

func (api *restAPI) flushTodo(w http.ResponseWriter, r *http.Request) {
	resp := api.adapter.Handle(r.Context(), common.NewFlushRequest(r.PathValue("name")))
	if writeError(w, resp) {
		return
	}
	_, _ = w.Write([]byte("Flushed"))
}

func (api *restAPI) health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (api *restAPI) writeMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	metrics.WritePrometheus(w, true)
}

// writeError writes the error of resp, if any, and reports whether it did.
func writeError(w http.ResponseWriter, resp *common.Message) bool {
	if resp.Code == common.ErrCNone && resp.Err == "" {
		return false
	}
	http.Error(w, resp.Err, statusOf(resp.Code))
	return true
}

func statusOf(code common.ErrorCode) int {
	switch code {
	case common.ErrCInvalidArgument:
		return http.StatusBadRequest
	case common.ErrCTimeout:
		return http.StatusRequestTimeout
	case common.ErrCStopped, common.ErrCSpawnFailed, common.ErrCPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
