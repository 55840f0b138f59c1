package dirserve

import (
	"net"
	"testing"

	"github.com/interline-io/log"
)

// FreePort asks the OS for an unused loopback port. Another process can claim
// the port between release and rebinding; callers accept that small risk.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// ServeDirectory starts a server over rootDir on a fresh loopback port. The
// returned stop func shuts the server down and is safe to call more than
// once; callers should defer it immediately.
func ServeDirectory(rootDir string, simulateFailures int) (*Server, func(), error) {
	port, err := FreePort()
	if err != nil {
		return nil, nil, err
	}
	srv, err := New("localhost", port, rootDir, simulateFailures)
	if err != nil {
		return nil, nil, err
	}
	go func() {
		if err := srv.Serve(); err != nil {
			log.Error().Err(err).Msg("dirserve: serve")
		}
	}()
	return srv, srv.Shutdown, nil
}

// NewTestServer is ServeDirectory for tests: setup errors fail the test and
// shutdown is registered with t.Cleanup, so the server stops on every exit
// path.
func NewTestServer(t testing.TB, rootDir string, simulateFailures int) *Server {
	t.Helper()
	srv, stop, err := ServeDirectory(rootDir, simulateFailures)
	if err != nil {
		t.Fatalf("dirserve: %v", err)
	}
	t.Cleanup(stop)
	return srv
}
