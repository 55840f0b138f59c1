package dirserve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreePort(t *testing.T) {
	port, err := FreePort()
	assert.NoError(t, err)
	assert.Greater(t, port, 0)
}

func TestServeDirectory_StopIdempotent(t *testing.T) {
	rootDir := t.TempDir()
	writeFile(t, rootDir, "hello.txt", "hi")
	srv, stop, err := ServeDirectory(rootDir, 0)
	if err != nil {
		t.Fatal(err)
	}

	status, _ := get(t, srv.URL()+"/hello.txt")
	assert.Equal(t, 200, status)
	assert.True(t, srv.Running())

	stop()
	assert.False(t, srv.Running())
	stop()
	srv.Shutdown()
	assert.False(t, srv.Running())
}

func TestServeDirectory_StopsOnCleanup(t *testing.T) {
	rootDir := t.TempDir()
	writeFile(t, rootDir, "hello.txt", "hi")

	var srv *Server
	t.Run("scoped", func(t *testing.T) {
		srv = NewTestServer(t, rootDir, 0)
		status, _ := get(t, srv.URL()+"/hello.txt")
		assert.Equal(t, 200, status)
	})
	assert.False(t, srv.Running())
}
