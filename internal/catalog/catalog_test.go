package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"docs":[
			{"key":"/works/OL1W","title":"Dune","author_name":["Frank Herbert"],"cover_i":123,"first_publish_year":1965},
			{"key":"/works/OL2W","title":"Dune Messiah","author_name":[]}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	results, err := client.Search(context.Background(), "dune", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "/works/OL1W", results[0].Key)
	assert.Equal(t, "Frank Herbert", results[0].Author)
	assert.Equal(t, 1965, results[0].FirstPublishYear)
	// Missing author list degrades to empty, not a panic.
	assert.Empty(t, results[1].Author)
}

func TestGetDetails(t *testing.T) {
	t.Run("string description", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/works/OL1W.json", r.URL.Path)
			_, _ = w.Write([]byte(`{"title":"Dune","description":"A desert planet.","subjects":["Science fiction"],"covers":[456]}`))
		}))
		defer srv.Close()

		details, err := NewClient(srv.URL).GetDetails(context.Background(), "/works/OL1W")
		require.NoError(t, err)
		assert.Equal(t, "Dune", details.Title)
		assert.Equal(t, "A desert planet.", details.Description)
		assert.Contains(t, details.CoverURL, "456")
	})

	t.Run("object description", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title":"Dune","description":{"type":"/type/text","value":"A desert planet."}}`))
		}))
		defer srv.Close()

		details, err := NewClient(srv.URL).GetDetails(context.Background(), "/works/OL1W")
		require.NoError(t, err)
		assert.Equal(t, "A desert planet.", details.Description)
	})

	t.Run("upstream error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).GetDetails(context.Background(), "/works/OL404W")
		assert.Error(t, err)
	})
}
