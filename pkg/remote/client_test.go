package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/studysync/pkg/storage"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	return client, server
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	client, err := New(Config{BaseURL: "http://localhost:8080/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestSyncUp_MultipartFields(t *testing.T) {
	var gotPath string
	var gotFiles map[string][]byte

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFiles = make(map[string][]byte)
		for field := range r.MultipartForm.File {
			file, _, err := r.FormFile(field)
			require.NoError(t, err)
			var buf [64]byte
			n, _ := file.Read(buf[:])
			gotFiles[field] = append([]byte(nil), buf[:n]...)
			_ = file.Close()
		}
		w.WriteHeader(http.StatusOK)
	}))

	payload := &storage.UploadPayload{Files: []storage.FilePayload{
		{Name: "data.csv", Content: []byte("a,b\n1,2\n")},
		{Name: "data.json", Content: []byte(`[{"a":1}]`)},
	}}

	err := client.SyncUp(context.Background(), "study-1", payload)
	require.NoError(t, err)
	assert.Equal(t, "/projects/workspace/sync_up/study-1", gotPath)
	assert.Equal(t, []byte("a,b\n1,2\n"), gotFiles["data.csv"])
	assert.Equal(t, []byte(`[{"a":1}]`), gotFiles["data.json"])
}

func TestSyncUp_EmptyPayloadSkipsRequest(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	require.NoError(t, client.SyncUp(context.Background(), "study-1", &storage.UploadPayload{}))
	assert.Zero(t, requests)
}

func TestSyncUp_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusGone)
	}))

	payload := &storage.UploadPayload{Files: []storage.FilePayload{{Name: "data.csv", Content: []byte("x")}}}
	err := client.SyncUp(context.Background(), "study-1", payload)

	var serverErr *Error
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusGone, serverErr.StatusCode)
	assert.Contains(t, serverErr.Message, "session expired")
}

func TestSyncDown_Found(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/workspace/sync_down/study-1/data.csv", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"content": "a,b\n1,2\n"})
	}))

	content, found, err := client.SyncDown(context.Background(), "study-1", "data.csv")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("a,b\n1,2\n"), content)
}

func TestSyncDown_NotFoundIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	content, found, err := client.SyncDown(context.Background(), "study-1", "data.csv")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, content)
}

func TestSyncDown_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, _, err := client.SyncDown(context.Background(), "study-1", "data.csv")

	var serverErr *Error
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	assert.Equal(t, "data.csv", serverErr.Filename)
}

func TestSyncDown_EscapesFilename(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/workspace/sync_down/study-1/data%20set.csv", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(map[string]string{"content": "x"})
	}))

	_, found, err := client.SyncDown(context.Background(), "study-1", "data set.csv")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCloseSession(t *testing.T) {
	var gotPath, gotMethod string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.CloseSession(context.Background(), "study-1"))
	assert.Equal(t, "/projects/workspace/close/study-1", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestCloseSession_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not yours", http.StatusForbidden)
	}))

	err := client.CloseSession(context.Background(), "study-1")

	var serverErr *Error
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusForbidden, serverErr.StatusCode)
}

func TestSyncDown_PacedClientWithZeroBurst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"content": "x"})
	}))
	t.Cleanup(server.Close)

	// An unset burst must not wedge the limiter into rejecting every request
	client, err := New(Config{BaseURL: server.URL, RequestsPerSecond: 10, Burst: 0})
	require.NoError(t, err)

	content, found, err := client.SyncDown(context.Background(), "study-1", "data.csv")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("x"), content)
}
