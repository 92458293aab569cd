package systemd

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	sent, err := NotifyReady()
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = NotifyStopping()
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestNotifyReadySendsDatagram(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sock, Net: "unixgram"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	t.Setenv("NOTIFY_SOCKET", sock)

	sent, err := NotifyReady()
	require.NoError(t, err)
	assert.True(t, sent)

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "READY=1", string(buf[:n]))
}

func TestAPIListenerWithoutActivation(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")
	require.NoError(t, os.Unsetenv("LISTEN_PID"))

	ln, err := APIListener()
	require.NoError(t, err)
	assert.Nil(t, ln)
}
