package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

func newTestClient(serverURL string, extra ...ClientOption) *Client {
	options := append([]ClientOption{
		WithBaseURL(serverURL),
		WithAPIKey("test-key"),
		WithRetry(2, time.Millisecond),
	}, extra...)

	return NewClient(options...)
}

func TestClientSendsAuthHeader(t *testing.T) {
	var gotKey, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-N8N-API-KEY")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Workflow{ID: "wf-1", Name: "demo"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	workflow, err := client.GetWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "/api/v1/workflows/wf-1", gotPath)
	assert.Equal(t, "demo", workflow.Name)
}

func TestListWorkflowsDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []Workflow{
				{ID: "wf-1", Name: "first"},
				{ID: "wf-2", Name: "second"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	active := true
	workflows, err := client.ListWorkflows(context.Background(), ListWorkflowsParams{Active: &active, Limit: 5})
	require.NoError(t, err)

	require.Len(t, workflows, 2)
	assert.Equal(t, "first", workflows[0].Name)
}

func TestClientSurfacesUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"workflow not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetWorkflow(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "workflow not found")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var body Workflow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body.ID = "wf-created"
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	created, err := client.CreateWorkflow(context.Background(), &Workflow{
		Name:  "retry me",
		Nodes: []domain.NodeInstance{{Name: "T", Type: "n8n-nodes-base.scheduleTrigger"}},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "wf-created", created.ID)
	assert.Equal(t, "retry me", created.Name)
	require.Len(t, created.Nodes, 1, "the request body is resent on retry")
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetWorkflow(context.Background(), "wf-1")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetWorkflow(context.Background(), "wf-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestVariableOperations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/variables", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []Variable{{ID: "var-1", Key: "env", Value: "prod"}},
		})
	})
	mux.HandleFunc("POST /api/v1/variables", func(w http.ResponseWriter, r *http.Request) {
		var v Variable
		json.NewDecoder(r.Body).Decode(&v)
		v.ID = "var-2"
		json.NewEncoder(w).Encode(v)
	})
	mux.HandleFunc("DELETE /api/v1/variables/var-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	variables, err := client.ListVariables(ctx)
	require.NoError(t, err)
	require.Len(t, variables, 1)
	assert.Equal(t, "env", variables[0].Key)

	created, err := client.CreateVariable(ctx, &Variable{Key: "region", Value: "eu"})
	require.NoError(t, err)
	assert.Equal(t, "var-2", created.ID)

	require.NoError(t, client.DeleteVariable(ctx, "var-1"))
}
