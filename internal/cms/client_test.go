package cms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client pointed at the given httptest server.
func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		appKey:     "test-key",
	}
}

func TestGet_SetsAuthAndAcceptHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListWidgetDescriptors(context.Background())
	require.NoError(t, err)
}

func TestListWidgetDescriptors_DecodesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/widgetDescriptors", r.URL.Path)
		w.Write([]byte(`{"items":[
			{"repositoryId":"W1","displayName":"Cart Summary","version":2,"widgetType":"cart","layouts":[]},
			{"repositoryId":"W2","displayName":"Header","version":1,"widgetType":"header","layouts":[{"repositoryId":"L1","displayName":"default"}]}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	descs, err := c.ListWidgetDescriptors(context.Background())
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, "W1", descs[0].RepositoryID)
	assert.False(t, descs[0].Elementized())
	assert.True(t, descs[1].Elementized())
}

func TestListWidgetInstanceGroups_SendsSourceParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/widgetDescriptors/instances", r.URL.Path)
		assert.Equal(t, SourceUser, r.URL.Query().Get("source"))
		w.Write([]byte(`{"items":[{"repositoryId":"W1","displayName":"Cart Summary","version":2,
			"instances":[{"repositoryId":"I1","displayName":"Cart Summary","version":2}]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	groups, err := c.ListWidgetInstanceGroups(context.Background(), SourceUser)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Instances, 1)
	assert.Equal(t, "I1", groups[0].Instances[0].RepositoryID)
}

func TestListThemes_RequestsCustomOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom", r.URL.Query().Get("type"))
		w.Write([]byte(`{"items":[{"repositoryId":"T1","name":"Mono Theme"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	themes, err := c.ListThemes(context.Background())
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, "Mono Theme", themes[0].Name)
}

func TestListElements_GlobalsParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("globals"))
		w.Write([]byte(`{"items":[{"tag":"rich-text","repositoryId":"E1"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	els, err := c.ListElements(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "rich-text", els[0].Tag)
}

func TestSupports_ChecksAllCapabilities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/registry", r.URL.Path)
		w.Write([]byte(`{"capabilities":["elementsListing","themes"]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)

	ok, err := c.Supports(context.Background(), CapabilityElements)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Supports(context.Background(), CapabilityElements, "somethingElse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_ErrorBodyFieldsSurfaceInError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorCode":"33001","message":"widget not found"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListWidgetDescriptors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "33001")
	assert.Contains(t, err.Error(), "widget not found")
	assert.False(t, IsTransient(err))
}

func TestGet_ServerErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListStackDescriptors(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGet_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(srv)
	_, err := c.ListThemes(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGet_MalformedJSONIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListWidgetDescriptors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
