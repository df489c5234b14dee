package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		iface   string
		version int
		request string
		op      uint16
	}{
		{"wl_display", 1, "get_registry", 1},
		{"wl_registry", 1, "bind", 0},
		{"wl_compositor", 6, "create_surface", 0},
		{"wl_surface", 6, "commit", 6},
		{"wl_surface", 6, "damage_buffer", 9},
		{"wl_shm", 2, "release", 1},
		{"wl_shm_pool", 2, "create_buffer", 0},
		{"xdg_wm_base", 6, "pong", 3},
		{"xdg_surface", 6, "ack_configure", 4},
		{"xdg_toplevel", 6, "set_app_id", 3},
	}

	for _, test := range tests {
		t.Run(test.iface+"."+test.request, func(t *testing.T) {
			i, ok := Lookup(test.iface)
			require.True(t, ok)
			assert.Equal(t, test.version, i.Version)

			op, ok := i.RequestOp(test.request)
			require.True(t, ok)
			assert.Equal(t, test.op, op)
		})
	}

	_, ok := Lookup("wl_seat")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "ping", EventName("xdg_wm_base", 0))
	assert.Equal(t, "wm_capabilities", EventName("xdg_toplevel", 3))
	assert.Equal(t, "preferred_buffer_transform", EventName("wl_surface", 3))
	assert.Equal(t, "event9", EventName("wl_surface", 9))
	assert.Equal(t, "set_title", RequestName("xdg_toplevel", 2))
	assert.Equal(t, "request0", RequestName("wl_seat", 0))
}

func TestOps(t *testing.T) {
	i, ok := Lookup("wl_shm")
	require.True(t, ok)

	release, ok := i.Request(1)
	require.True(t, ok)
	assert.True(t, release.IsDestructor())
	assert.Equal(t, 2, release.Since)

	createPool, ok := i.Request(0)
	require.True(t, ok)
	require.Len(t, createPool.Args, 3)
	assert.Equal(t, "fd", createPool.Args[1].Type)

	require.Len(t, i.Enums, 1)
	v, err := i.Enums[0].Entries[1].Int()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	surface, ok := Lookup("wl_surface")
	require.True(t, ok)
	attach, _ := surface.Request(1)
	assert.True(t, attach.Args[0].AllowNull)
}
