// Package systemd integrates `earnclock serve` with the service manager:
// readiness notifications and a socket-activated API listener.
package systemd

import (
	"fmt"
	"net"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// ListenerName is the FileDescriptorName= of the API socket in
// earnclock.socket.
const ListenerName = "http"

// APIListener returns the socket-activated API listener, or nil when the
// process was not started by socket activation.
func APIListener() (net.Listener, error) {
	if len(activation.Files(false)) == 0 {
		return nil, nil
	}
	named, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if lns, ok := named[ListenerName]; ok && len(lns) > 0 {
		return lns[0], nil
	}
	// A single unnamed socket is the API socket.
	lns, err := activation.Listeners()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if len(lns) == 1 {
		return lns[0], nil
	}
	return nil, fmt.Errorf("no %q socket among %d activated sockets", ListenerName, len(lns))
}

// NotifyReady sends READY=1. It reports whether a notification was sent;
// outside systemd it is a no-op.
func NotifyReady() (bool, error) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return false, fmt.Errorf("failed to send sd_notify: %w", err)
	}
	return sent, nil
}

// NotifyStopping sends STOPPING=1.
func NotifyStopping() (bool, error) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return false, fmt.Errorf("failed to send sd_notify stopping: %w", err)
	}
	return sent, nil
}
