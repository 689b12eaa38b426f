package portscan

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// occupyRun binds n consecutive ports and returns the first one. Listeners
// are closed when the test ends.
func occupyRun(t *testing.T, n int) int {
	t.Helper()
	for attempt := 0; attempt < 50; attempt++ {
		probe, err := net.Listen("tcp", net.JoinHostPort(Host, "0"))
		require.NoError(t, err)
		base := Port(probe)
		held := []net.Listener{probe}
		ok := base+n <= 65535
		for p := base + 1; ok && p < base+n; p++ {
			ln, err := net.Listen("tcp", addr(p))
			if err != nil {
				ok = false
				break
			}
			held = append(held, ln)
		}
		if ok {
			t.Cleanup(func() {
				for _, ln := range held {
					_ = ln.Close()
				}
			})
			return base
		}
		for _, ln := range held {
			_ = ln.Close()
		}
	}
	t.Skip("could not reserve a run of consecutive ports")
	return 0
}

func TestFindPort_SkipsOccupied(t *testing.T) {
	base := occupyRun(t, 3)

	// base..base+2 are held; base+3 may be taken by someone else, so accept
	// any port beyond the occupied run.
	port, ok := FindPort(base, base+20)
	require.True(t, ok)
	assert.Greater(t, port, base+2)
}

func TestFindPort_FullyOccupied(t *testing.T) {
	base := occupyRun(t, 3)

	port, ok := FindPort(base, base+2)
	assert.False(t, ok)
	assert.Zero(t, port)
}

func TestFindPort_InvalidRange(t *testing.T) {
	_, ok := FindPort(10, 5)
	assert.False(t, ok)
	_, ok = FindPort(0, 5)
	assert.False(t, ok)
	_, ok = FindPort(65535, 70000)
	assert.False(t, ok)
}

func TestListen_ReturnsBoundListener(t *testing.T) {
	base := occupyRun(t, 2)

	ln, err := Listen(context.Background(), base, base+20)
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	assert.Greater(t, Port(ln), base+1)

	// the port stays held until the caller closes it
	_, err = net.Listen("tcp", ln.Addr().String())
	require.Error(t, err)
}

func TestListen_Exhausted(t *testing.T) {
	base := occupyRun(t, 2)

	_, err := Listen(context.Background(), base, base+1)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestListen_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Listen(ctx, 40000, 40010)
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(3000, 3100))
	require.NoError(t, Validate(3000, 3000))
	require.Error(t, Validate(3100, 3000))
	require.Error(t, Validate(-1, 3000))
}
