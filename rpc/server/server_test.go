package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dTodo/rpc/common"
	"github.com/ValentinKolb/dTodo/rpc/serializer"
	"github.com/ValentinKolb/dTodo/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// muxTransport serves the registered handler and mounted routes on a ServeMux
// so the server can be tested with httptest.
type muxTransport struct {
	mux     *http.ServeMux
	handler transport.ServerHandleFunc
}

func (m *muxTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	m.handler = handler
	m.mux.HandleFunc("POST /rpc", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(m.handler(r.Context(), body))
	})
}

func (m *muxTransport) Mount(pattern string, handler http.Handler) { m.mux.Handle(pattern, handler) }
func (m *muxTransport) Listen(common.ServerConfig) error          { return nil }
func (m *muxTransport) Shutdown(context.Context) error            { return nil }

type testServer struct {
	*httptest.Server
	rpc        *RPCServer
	serializer serializer.IRPCSerializer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config := common.ServerConfig{
		Endpoint:              "test",
		Backend:               "memory",
		TimeoutSecond:         5,
		ShutdownTimeoutSecond: 5,
		QuarantineCorrupt:     true,
		LogLevel:              "error",
	}
	tr := &muxTransport{mux: http.NewServeMux()}
	ser := serializer.NewBinarySerializer()
	s := NewRPCServer(config, tr, ser)
	require.NoError(t, s.Init())

	srv := httptest.NewServer(tr.mux)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	})
	return &testServer{Server: srv, rpc: s, serializer: ser}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func (ts *testServer) call(t *testing.T, req *common.Message) *common.Message {
	t.Helper()
	data, err := ts.serializer.Serialize(*req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/rpc", "application/octet-stream", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var msg common.Message
	require.NoError(t, ts.serializer.Deserialize(body, &msg))
	return &msg
}

func (ts *testServer) getEntries(t *testing.T, name, date string) []common.Entry {
	t.Helper()
	code, body := ts.do(t, http.MethodGet, "/todo/"+name+"/"+date, "")
	require.Equal(t, http.StatusOK, code, body)
	var entries []common.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	return entries
}

func TestRESTPostAndGet(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/todo", `{"name":"alice","date":"2024-03-01","title":"buy milk"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Entry added", body)

	code, _ = ts.do(t, http.MethodPost, "/todo", `{"name":"alice","date":"2024-03-02","title":"call bob"}`)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, []common.Entry{{Date: "2024-03-01", Title: "buy milk"}}, ts.getEntries(t, "alice", "2024-03-01"))
	assert.Empty(t, ts.getEntries(t, "bob", "2024-03-01"))

	// an empty result is an empty json array, not null
	_, body = ts.do(t, http.MethodGet, "/todo/bob/2024-03-01", "")
	assert.Equal(t, "[]", strings.TrimSpace(body))
}

func TestRESTInvalidInput(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/todo", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/todo", `{"name":"","date":"2024-03-01","title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/todo", `{"name":"alice","date":"2024-02-30","title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodGet, "/todo/alice/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRESTCrashKeepsFlushedEntries(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/todo", `{"name":"alice","date":"2024-03-01","title":"buy milk"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, http.MethodPost, "/flush-todo/alice", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Flushed", body)

	code, body = ts.do(t, http.MethodDelete, "/crash-todo/alice", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Worker crashed", body)

	// served by a fresh worker that reloaded the list
	assert.Equal(t, []common.Entry{{Date: "2024-03-01", Title: "buy milk"}}, ts.getEntries(t, "alice", "2024-03-01"))

	// the exit notification reaches the registry asynchronously
	assert.Eventually(t, func() bool {
		resp := ts.call(t, common.NewStatusRequest(""))
		var status ServerStatus
		if resp.Err != "" || json.Unmarshal(resp.Value, &status) != nil {
			return false
		}
		return status.Registry.ExitedFailed == 1 && status.Registry.Spawned == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRESTHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	ts.do(t, http.MethodGet, "/todo/alice/2024-03-01", "")
	code, body = ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `dtodo_rpc_requests_total{type="get"}`)
	assert.Contains(t, body, "dtodo_workers_active")
}

func TestRPCOperations(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.call(t, common.NewPostRequest("alice", "2024-03-01", "buy milk"))
	require.Equal(t, common.MsgTTodoPost, resp.MsgType)
	require.Empty(t, resp.Err)

	resp = ts.call(t, common.NewGetRequest("alice", "2024-03-01"))
	require.Empty(t, resp.Err)
	assert.Equal(t, []common.Entry{{Date: "2024-03-01", Title: "buy milk"}}, resp.Entries)

	resp = ts.call(t, common.NewKeysRequest())
	require.Empty(t, resp.Err)
	assert.Equal(t, []string{"alice"}, resp.Keys)

	resp = ts.call(t, common.NewStatusRequest("alice"))
	require.Empty(t, resp.Err)
	assert.True(t, resp.Ok)
	assert.Contains(t, string(resp.Value), `"entries":1`)

	resp = ts.call(t, common.NewStopRequest("alice"))
	require.Empty(t, resp.Err)
	assert.True(t, resp.Ok)

	resp = ts.call(t, common.NewStopRequest("alice"))
	require.Empty(t, resp.Err)
	assert.False(t, resp.Ok, "second stop finds no worker")

	resp = ts.call(t, common.NewStatusRequest("alice"))
	require.Empty(t, resp.Err)
	assert.False(t, resp.Ok)
}

func TestRPCErrors(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.call(t, common.NewGetRequest("alice", "not-a-date"))
	assert.Equal(t, common.ErrCInvalidArgument, resp.Code)
	assert.NotEmpty(t, resp.Err)

	resp = ts.call(t, common.NewFlushRequest(""))
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Equal(t, common.ErrCInvalidArgument, resp.Code)

	resp = ts.call(t, &common.Message{MsgType: common.MsgTSuccess})
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Equal(t, common.ErrCInvalidArgument, resp.Code)

	// garbage that the binary serializer can not decode
	httpResp, err := http.Post(ts.URL+"/rpc", "application/octet-stream", bytes.NewReader([]byte{1}))
	require.NoError(t, err)
	defer httpResp.Body.Close()
	body, _ := io.ReadAll(httpResp.Body)
	var msg common.Message
	require.NoError(t, ts.serializer.Deserialize(body, &msg))
	assert.Equal(t, common.MsgTError, msg.MsgType)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(common.ErrCInvalidArgument))
	assert.Equal(t, http.StatusRequestTimeout, statusOf(common.ErrCTimeout))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(common.ErrCStopped))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(common.ErrCSpawnFailed))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(common.ErrCPersistence))
	assert.Equal(t, http.StatusInternalServerError, statusOf(common.ErrCInternal))
}

func TestNewDBFactory(t *testing.T) {
	for _, backend := range []string{"memory", "file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			factory, err := NewDBFactory(common.ServerConfig{Backend: backend, DataDir: t.TempDir()})
			require.NoError(t, err)
			database, err := factory()
			require.NoError(t, err)
			require.NoError(t, database.Save("alice", []byte(`{}`)))
			data, ok, err := database.Load("alice")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte(`{}`), data)
			require.NoError(t, database.Close())
		})
	}

	_, err := NewDBFactory(common.ServerConfig{Backend: "cassandra"})
	assert.Error(t, err)
}
