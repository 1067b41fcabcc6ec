package images

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

func TestLocalName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "https url",
			url:  "https://media.example.com/pics/storm.png",
			want: "media.example.compicsstorm.png",
		},
		{
			name: "http url",
			url:  "http://example.com/a/b.jpg",
			want: "example.comab.jpg",
		},
		{
			name: "port stripped of colon",
			url:  "https://example.com:8080/c.gif",
			want: "example.com8080c.gif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalName(tt.url))
		})
	}
}

func TestEnsureDownloadsOnce(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := New(dir, srv.Client())

	url := srv.URL + "/pic.png"
	path, err := m.Ensure(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LocalName(url)), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(body))

	// Second call hits the existing file, not the network.
	again, err := m.Ensure(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, hits)
}

func TestEnsureNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m := New(t.TempDir(), srv.Client())

	_, err := m.Ensure(context.Background(), srv.URL+"/gone.png")
	require.Error(t, err)
}
