package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSpecValidatesShippedDocument(t *testing.T) {
	doc, err := LoadSpec(context.Background(), filepath.Join("..", "..", "..", "api", "openapi.yml"))
	require.NoError(t, err)

	assert.NotNil(t, doc.Paths.Find("/licenses"))
	assert.NotNil(t, doc.Paths.Find("/licenses/demo"))
	assert.NotNil(t, doc.Paths.Find("/tickets/{id}/flag"))
	assert.NotNil(t, doc.Paths.Find("/crm/accounts/{id}/overview"))
}

func TestLoadSpecRejectsBrokenDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: x\npaths: {}\n"), 0o600))

	_, err := LoadSpec(context.Background(), path)
	assert.Error(t, err)
}

func TestHandlerServesUI(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
