package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		params map[string]string
		want   string
	}{
		{
			name:   "no params",
			method: "GET",
			path:   "/api/v1/projects",
			want:   "GET /api/v1/projects",
		},
		{
			name:   "params sorted",
			method: "GET",
			path:   "/api/v1/projects",
			params: map[string]string{"page": "2", "limit": "50"},
			want:   "GET /api/v1/projects?limit=50&page=2",
		},
		{
			name:   "method distinguishes keys",
			method: "HEAD",
			path:   "/api/v1/projects",
			want:   "HEAD /api/v1/projects",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KeyFor(tt.method, tt.path, tt.params))
		})
	}
}

func TestKeyForDeterministic(t *testing.T) {
	params := map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"}
	first := KeyFor("GET", "/x", params)
	for i := 0; i < 50; i++ {
		require.Equal(t, first, KeyFor("GET", "/x", params))
	}
}
