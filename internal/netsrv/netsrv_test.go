package netsrv_test

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/emberkv/ember/internal/client"
	"github.com/emberkv/ember/internal/engineiface"
	"github.com/emberkv/ember/internal/netsrv"
	"github.com/emberkv/ember/pkg/logger"
	"github.com/emberkv/ember/pkg/options"
)

func newServer(t *testing.T) (*netsrv.Server, string) {
	t.Helper()

	dir := t.TempDir()
	engine, err := engineiface.Open(engineiface.NativeLog, "netsrv-test", options.WithDataDir(dir))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	port := dynaport.Get(1)[0]
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)

	srv := netsrv.New(ln, engine, logger.NewNop())
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	return srv, addr
}

func TestSetGetRemoveOverTheWire(t *testing.T) {
	_, addr := newServer(t)
	c := client.New(addr)

	require.NoError(t, c.Set("a", "1"))

	v, ok, err := c.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)

	require.NoError(t, c.Remove("a"))

	_, ok, err = c.Get("a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveMissingKeyReturnsError(t *testing.T) {
	_, addr := newServer(t)
	c := client.New(addr)

	err := c.Remove("missing")
	require.Error(t, err)
}
