package webgate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// staticAuth authorizes a fixed set of secrets.
type staticAuth map[string]bool

func (a staticAuth) Contains(secret string) bool { return a[secret] }

func TestServerAuthorization(t *testing.T) {
	server, err := New(staticAuth{"11111111-1111-1111-1111-111111111111": true})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		status int
	}{
		{
			name:   "valid credential",
			method: http.MethodGet,
			path:   "/",
			header: "Bearer 11111111-1111-1111-1111-111111111111",
			status: http.StatusOK,
		},
		{
			name:   "method and path are not distinguished",
			method: http.MethodPost,
			path:   "/some/arbitrary/path",
			header: "Bearer 11111111-1111-1111-1111-111111111111",
			status: http.StatusOK,
		},
		{
			name:   "invalid credential",
			method: http.MethodGet,
			path:   "/",
			header: "Bearer nope",
			status: http.StatusUnauthorized,
		},
		{
			name:   "missing header",
			method: http.MethodGet,
			path:   "/",
			status: http.StatusUnauthorized,
		},
		{
			name:   "scheme is case-sensitive",
			method: http.MethodGet,
			path:   "/",
			header: "bearer 11111111-1111-1111-1111-111111111111",
			status: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestNewRequiresAuthorizer(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
