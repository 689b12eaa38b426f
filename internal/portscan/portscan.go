// Package portscan finds a free TCP port in a bounded range.
package portscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"syscall"

	"git.home.luguber.info/inful/siteforge/internal/logfields"
)

// ErrExhausted is returned when no port in the range could be bound.
var ErrExhausted = errors.New("no free port in range")

// Host is the interface the dev server binds to.
const Host = "127.0.0.1"

// Validate checks 0 < start <= maxPort <= 65535.
func Validate(start, maxPort int) error {
	if start <= 0 || start > 65535 {
		return fmt.Errorf("start port %d out of range 1-65535", start)
	}
	if maxPort < start || maxPort > 65535 {
		return fmt.Errorf("max port %d must be between %d and 65535", maxPort, start)
	}
	return nil
}

// FindPort probes start..maxPort in order by binding and immediately closing a
// listener. The returned port is free at probe time only; another process may
// take it before the caller binds. Prefer Listen.
func FindPort(start, maxPort int) (int, bool) {
	if Validate(start, maxPort) != nil {
		return 0, false
	}
	for port := start; port <= maxPort; port++ {
		ln, err := net.Listen("tcp", addr(port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, true
	}
	return 0, false
}

// Listen binds the first free port in start..maxPort and returns the live
// listener. "Address in use" moves on to the next port; any other bind error
// is returned as is.
func Listen(ctx context.Context, start, maxPort int) (net.Listener, error) {
	if err := Validate(start, maxPort); err != nil {
		return nil, err
	}
	var lc net.ListenConfig
	for port := start; port <= maxPort; port++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ln, err := lc.Listen(ctx, "tcp", addr(port))
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen on port %d: %w", port, err)
		}
		slog.Debug("Port busy, trying next", logfields.Port(port))
	}
	return nil, fmt.Errorf("%w %d-%d", ErrExhausted, start, maxPort)
}

// Port extracts the TCP port of a listener.
func Port(ln net.Listener) int {
	if a, ok := ln.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

func addr(port int) string {
	return net.JoinHostPort(Host, strconv.Itoa(port))
}
