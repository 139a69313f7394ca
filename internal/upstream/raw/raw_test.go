package raw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/ghtrend/internal/upstream"
)

func TestReadme(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/old/project/master/README.md":
			_, _ = w.Write([]byte("# Old project\n"))
		case "/new/project/main/README.md":
			_, _ = w.Write([]byte("# New project\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(upstream.NewHTTPClient(upstream.HTTPConfig{}), srv.URL)
	ctx := context.Background()

	text, err := c.Readme(ctx, "new/project")
	require.NoError(t, err)
	assert.Equal(t, "# New project\n", text)

	paths = nil
	text, err = c.Readme(ctx, "old/project")
	require.NoError(t, err)
	assert.Equal(t, "# Old project\n", text)
	assert.Equal(t, []string{"/old/project/main/README.md", "/old/project/master/README.md"}, paths)

	_, err = c.Readme(ctx, "missing/project")
	require.ErrorIs(t, err, upstream.ErrNotFound)
}
