package search

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeES(t *testing.T, h http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size, wantFrom, wantLimit int
	}{
		{page: 1, size: 10, wantFrom: 0, wantLimit: 10},
		{page: 3, size: 10, wantFrom: 20, wantLimit: 10},
		{page: 0, size: 0, wantFrom: 0, wantLimit: DefaultPageSize},
		{page: 2, size: 500, wantFrom: DefaultPageSize, wantLimit: DefaultPageSize},
	}
	for _, tc := range tests {
		from, limit := Calculate(tc.page, tc.size)
		assert.Equal(t, tc.wantFrom, from)
		assert.Equal(t, tc.wantLimit, limit)
	}
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	var query map[string]any
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/_search", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":7},"hits":[{"_source":{"id":"b1","title":"Dune","price":"450"}}]}}`)
	})

	total, books, err := NewIndex(es, "books").Search(context.Background(), "dnue", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, books, 1)
	assert.Equal(t, api.ID("b1"), books[0].ID)
	assert.InDelta(t, 450, books[0].Price, 1e-9)

	assert.EqualValues(t, 5, query["from"])
	assert.EqualValues(t, 5, query["size"])
	mm := query["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "dnue", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, []any{"title^2", "author", "description"}, mm["fields"])
}

func TestIndex_SearchError(t *testing.T) {
	t.Parallel()

	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"unavailable"}`)
	})

	_, _, err := NewIndex(es, "books").Search(context.Background(), "x", 1, 10)
	assert.ErrorIs(t, err, ErrSearch)
}

func TestIndex_BulkIndex(t *testing.T) {
	t.Parallel()

	var lines []string
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/_bulk", r.URL.Path)
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		_, _ = io.WriteString(w, `{"errors":false,"items":[{"index":{"status":201}},{"index":{"status":200}}]}`)
	})

	n, err := NewIndex(es, "books").BulkIndex(context.Background(), []api.Book{
		{ID: "b1", Title: "Dune"},
		{Title: "no id"},
		{ID: "b2", Title: "Emma"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"_id":"b1"`)
	assert.Contains(t, lines[1], `"title":"Dune"`)
	assert.Contains(t, lines[2], `"_id":"b2"`)
}

func TestIndex_BulkIndexPartialFailure(t *testing.T) {
	t.Parallel()

	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"errors":true,"items":[{"index":{"status":201}},{"index":{"status":400}}]}`)
	})

	n, err := NewIndex(es, "books").BulkIndex(context.Background(), []api.Book{{ID: "b1"}, {ID: "b2"}})
	assert.ErrorIs(t, err, ErrSearch)
	assert.Equal(t, 1, n)
}

func TestIndex_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "already gone", status: http.StatusNotFound},
		{name: "cluster error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var method, path string
			es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
				method, path = r.Method, r.URL.Path
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"result":"deleted"}`)
			})

			err := NewIndex(es, "books").Delete(context.Background(), "b9")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrSearch)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, http.MethodDelete, method)
			assert.Equal(t, "/books/_doc/b9", path)
		})
	}
}

func TestIndex_Ensure(t *testing.T) {
	t.Parallel()

	var created bool
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			assert.True(t, strings.Contains(string(body), `"mappings"`))
			created = true
			_, _ = io.WriteString(w, `{"acknowledged":true}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	require.NoError(t, NewIndex(es, "books").Ensure(context.Background()))
	assert.True(t, created)
}

func TestNewClient_Info(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"}}`)
	}))
	t.Cleanup(srv.Close)

	es, err := NewClient(context.Background(), Config{URL: srv.URL}, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, es)
}
