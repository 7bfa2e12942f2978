package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMemory records calls and returns canned values
type stubMemory struct {
	addErr     error
	cognifyErr error
	searchErr  error
	resetErr   error

	addedText  string
	answers    []model.Answer
	processed  int
	resetCalls int
}

func (s *stubMemory) Add(text string, metadata model.Metadata) (*model.Document, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.addedText = text
	return model.NewDocumentFromText(text, metadata), nil
}

func (s *stubMemory) Cognify(ctx context.Context) (int, error) {
	if s.cognifyErr != nil {
		return 0, s.cognifyErr
	}
	return s.processed, nil
}

func (s *stubMemory) Search(ctx context.Context, query string, config *model.QueryConfig) ([]model.Answer, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.answers, nil
}

func (s *stubMemory) Reset() error {
	s.resetCalls++
	return s.resetErr
}

// stubGraph records calls and returns canned values
type stubGraph struct {
	listErr   error
	deleteErr error
	dumpErr   error

	documents  []*model.DocumentSummary
	snapshot   *model.GraphSnapshot
	deletedRID uuid.UUID
}

func (s *stubGraph) ListDocuments() ([]*model.DocumentSummary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.documents, nil
}

func (s *stubGraph) DeleteDocument(rid uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedRID = rid
	return nil
}

func (s *stubGraph) DumpGraph() (*model.GraphSnapshot, error) {
	if s.dumpErr != nil {
		return nil, s.dumpErr
	}
	return s.snapshot, nil
}

func newTestServer(memory *stubMemory, graph *stubGraph) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httptest.NewServer(NewServer(memory, graph, logger).Handler())
}

func doJSON(t *testing.T, method string, url string, body any) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, url, reader)
	require.NoError(t, err, "failed to create request")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err, "failed to execute request")

	var decoded map[string]any
	err = json.NewDecoder(response.Body).Decode(&decoded)
	response.Body.Close()
	require.NoError(t, err, "failed to decode response body")

	return response, decoded
}

func TestServerHealth(t *testing.T) {
	server := newTestServer(&stubMemory{}, &stubGraph{})
	defer server.Close()

	response, body := doJSON(t, http.MethodGet, server.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode, "Expected health check to return 200")
	assert.Equal(t, "ok", body["status"], "Expected health status ok")
}

func TestServerIndex(t *testing.T) {
	server := newTestServer(&stubMemory{}, &stubGraph{})
	defer server.Close()

	response, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, http.StatusOK, response.StatusCode, "Expected index page to return 200")
	assert.Contains(t, response.Header.Get("Content-Type"), "text/html", "Expected HTML content type")

	page, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Cognify", "Expected the visualization page")
}

func TestServerAdd(t *testing.T) {
	t.Run("Valid add returns success envelope", func(t *testing.T) {
		memory := &stubMemory{}
		server := newTestServer(memory, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/add", map[string]string{"text": "Acme builds rockets."})
		assert.Equal(t, http.StatusOK, response.StatusCode, "Expected add to return 200")
		assert.Equal(t, "success", body["status"], "Expected success status")
		assert.Contains(t, body["message"], "added successfully", "Expected confirmation message")
		assert.Equal(t, "Acme builds rockets.", memory.addedText, "Expected text forwarded to memory")
	})

	t.Run("Add failure returns 500 with detail", func(t *testing.T) {
		memory := &stubMemory{addErr: fmt.Errorf("text is empty")}
		server := newTestServer(memory, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/add", map[string]string{"text": ""})
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode, "Expected add failure to return 500")
		assert.Equal(t, "text is empty", body["detail"], "Expected error message as detail")
	})

	t.Run("Malformed body returns 500 with detail", func(t *testing.T) {
		server := newTestServer(&stubMemory{}, &stubGraph{})
		defer server.Close()

		response, err := http.Post(server.URL+"/api/add", "application/json", strings.NewReader("{not json"))
		require.NoError(t, err)
		defer response.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode, "Expected malformed body to return 500")
	})
}

func TestServerCognify(t *testing.T) {
	t.Run("Valid cognify reports processed count", func(t *testing.T) {
		memory := &stubMemory{processed: 3}
		server := newTestServer(memory, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/cognify", nil)
		assert.Equal(t, http.StatusOK, response.StatusCode, "Expected cognify to return 200")
		assert.Equal(t, "success", body["status"])
		assert.Contains(t, body["message"], "3 documents processed", "Expected processed count in message")
	})

	t.Run("Cognify failure returns 500 with detail", func(t *testing.T) {
		memory := &stubMemory{cognifyErr: fmt.Errorf("pipeline not set")}
		server := newTestServer(memory, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/cognify", nil)
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
		assert.Equal(t, "pipeline not set", body["detail"])
	})
}

func TestServerSearch(t *testing.T) {
	t.Run("Answers are normalized to strings", func(t *testing.T) {
		memory := &stubMemory{
			answers: []model.Answer{
				model.TextAnswer("Acme builds rockets."),
				model.RecordAnswer([]string{"Acme hires engineers.", "Mentions: Acme"}),
				model.ObjectAnswer(&model.Summary{Content: "Acme in short."}),
			},
		}
		server := newTestServer(memory, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/search", map[string]string{"query": "What does Acme do?"})
		assert.Equal(t, http.StatusOK, response.StatusCode, "Expected search to return 200")
		assert.Equal(t, "success", body["status"])

		results, ok := body["results"].([]any)
		require.True(t, ok, "Expected results array")
		require.Len(t, results, 3, "Expected all answers in results")
		assert.Equal(t, "Acme builds rockets.", results[0])
		assert.Equal(t, "Acme hires engineers.", results[1])
		assert.Equal(t, "Acme in short.", results[2])
	})

	t.Run("No answers yields empty results array", func(t *testing.T) {
		server := newTestServer(&stubMemory{}, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/search", map[string]string{"query": "Anything?"})
		assert.Equal(t, http.StatusOK, response.StatusCode)
		results, ok := body["results"].([]any)
		require.True(t, ok, "Expected results array even when empty")
		assert.Empty(t, results)
	})

	t.Run("Search failure returns 500 with detail", func(t *testing.T) {
		memory := &stubMemory{searchErr: fmt.Errorf("text is empty")}
		server := newTestServer(memory, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodPost, server.URL+"/api/search", map[string]string{"query": ""})
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
		assert.Equal(t, "text is empty", body["detail"])
	})
}

func TestServerReset(t *testing.T) {
	memory := &stubMemory{}
	server := newTestServer(memory, &stubGraph{})
	defer server.Close()

	response, body := doJSON(t, http.MethodPost, server.URL+"/api/reset", nil)
	assert.Equal(t, http.StatusOK, response.StatusCode, "Expected reset to return 200")
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 1, memory.resetCalls, "Expected reset forwarded to memory")
}

func TestServerListDocuments(t *testing.T) {
	t.Run("Documents are listed", func(t *testing.T) {
		graph := &stubGraph{
			documents: []*model.DocumentSummary{
				{ID: uuid.NewString(), Name: "Acme Report", Preview: "Acme grew.", CreatedAt: time.Now()},
			},
		}
		server := newTestServer(&stubMemory{}, graph)
		defer server.Close()

		response, body := doJSON(t, http.MethodGet, server.URL+"/api/documents", nil)
		assert.Equal(t, http.StatusOK, response.StatusCode, "Expected document listing to return 200")

		documents, ok := body["documents"].([]any)
		require.True(t, ok, "Expected documents array")
		require.Len(t, documents, 1)
		first, ok := documents[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Acme Report", first["name"])
		assert.Equal(t, "Acme grew.", first["preview"])
	})

	t.Run("Empty store yields empty array", func(t *testing.T) {
		server := newTestServer(&stubMemory{}, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodGet, server.URL+"/api/documents", nil)
		assert.Equal(t, http.StatusOK, response.StatusCode)
		documents, ok := body["documents"].([]any)
		require.True(t, ok, "Expected documents array even when empty")
		assert.Empty(t, documents)
	})

	t.Run("Listing failure returns 500 with stack trace", func(t *testing.T) {
		graph := &stubGraph{listErr: fmt.Errorf("store offline")}
		server := newTestServer(&stubMemory{}, graph)
		defer server.Close()

		response, body := doJSON(t, http.MethodGet, server.URL+"/api/documents", nil)
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
		detail, ok := body["detail"].(string)
		require.True(t, ok)
		assert.Contains(t, detail, "store offline", "Expected error message in detail")
		assert.Contains(t, detail, "goroutine", "Expected stack trace appended to detail")
	})
}

func TestServerDeleteDocument(t *testing.T) {
	t.Run("Valid delete forwards the id", func(t *testing.T) {
		graph := &stubGraph{}
		server := newTestServer(&stubMemory{}, graph)
		defer server.Close()

		rid := uuid.New()
		response, body := doJSON(t, http.MethodDelete, server.URL+"/api/documents/"+rid.String(), nil)
		assert.Equal(t, http.StatusOK, response.StatusCode, "Expected delete to return 200")
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, rid, graph.deletedRID, "Expected id forwarded to graph store")
	})

	t.Run("Invalid id returns 500 with detail", func(t *testing.T) {
		server := newTestServer(&stubMemory{}, &stubGraph{})
		defer server.Close()

		response, body := doJSON(t, http.MethodDelete, server.URL+"/api/documents/not-a-uuid", nil)
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
		detail, ok := body["detail"].(string)
		require.True(t, ok)
		assert.Contains(t, detail, "invalid document id")
	})
}

func TestServerGraphData(t *testing.T) {
	t.Run("Snapshot is returned as nodes and edges", func(t *testing.T) {
		graph := &stubGraph{
			snapshot: &model.GraphSnapshot{
				Nodes: []model.GraphNode{{ID: "n1", Label: "Acme", Type: "ORG", Title: "Type: ORG\nAcme"}},
				Edges: []model.GraphEdge{{From: "n1", To: "n2", Label: "entity_mention", Title: "entity_mention"}},
			},
		}
		server := newTestServer(&stubMemory{}, graph)
		defer server.Close()

		response, body := doJSON(t, http.MethodGet, server.URL+"/api/graph-data", nil)
		assert.Equal(t, http.StatusOK, response.StatusCode, "Expected graph data to return 200")

		nodes, ok := body["nodes"].([]any)
		require.True(t, ok, "Expected nodes array")
		require.Len(t, nodes, 1)
		node, ok := nodes[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Acme", node["label"])

		edges, ok := body["edges"].([]any)
		require.True(t, ok, "Expected edges array")
		require.Len(t, edges, 1)
	})

	t.Run("Empty snapshot yields empty arrays", func(t *testing.T) {
		graph := &stubGraph{snapshot: &model.GraphSnapshot{}}
		server := newTestServer(&stubMemory{}, graph)
		defer server.Close()

		response, body := doJSON(t, http.MethodGet, server.URL+"/api/graph-data", nil)
		assert.Equal(t, http.StatusOK, response.StatusCode)
		nodes, ok := body["nodes"].([]any)
		require.True(t, ok, "Expected nodes array even when empty")
		assert.Empty(t, nodes)
	})

	t.Run("Dump failure returns 500 with stack trace", func(t *testing.T) {
		graph := &stubGraph{dumpErr: fmt.Errorf("dump failed")}
		server := newTestServer(&stubMemory{}, graph)
		defer server.Close()

		response, body := doJSON(t, http.MethodGet, server.URL+"/api/graph-data", nil)
		assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
		detail, ok := body["detail"].(string)
		require.True(t, ok)
		assert.Contains(t, detail, "dump failed")
		assert.Contains(t, detail, "goroutine")
	})
}

func TestServerCORS(t *testing.T) {
	server := newTestServer(&stubMemory{}, &stubGraph{})
	defer server.Close()

	t.Run("Preflight request is answered", func(t *testing.T) {
		request, err := http.NewRequest(http.MethodOptions, server.URL+"/api/add", nil)
		require.NoError(t, err)
		response, err := http.DefaultClient.Do(request)
		require.NoError(t, err)
		defer response.Body.Close()

		assert.Equal(t, http.StatusNoContent, response.StatusCode, "Expected preflight to return 204")
		assert.Equal(t, "*", response.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("Responses carry CORS headers", func(t *testing.T) {
		response, err := http.Get(server.URL + "/api/health")
		require.NoError(t, err)
		defer response.Body.Close()

		assert.Equal(t, "*", response.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestServerMetrics(t *testing.T) {
	server := newTestServer(&stubMemory{}, &stubGraph{})
	defer server.Close()

	_, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)

	response, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, http.StatusOK, response.StatusCode, "Expected metrics endpoint to return 200")

	metrics, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "cognify_http_requests_total", "Expected request counter in metrics output")
	assert.Contains(t, string(metrics), `path="/api/health"`, "Expected the health request counted")
}
