package wire

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	id uint32
}

func (obj *testObject) ID() uint32                        { return obj.id }
func (obj *testObject) SetID(id uint32)                   { obj.id = id }
func (obj *testObject) Interface() string                 { return "test_object" }
func (obj *testObject) Dispatch(msg *MessageBuffer) error { return nil }
func (obj *testObject) Delete()                           {}

func pair(t *testing.T) (*Conn, *Conn) {
	t.Helper()

	c1, c2, err := Pair()
	require.NoError(t, err)
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	return c1, c2
}

func TestPadding(t *testing.T) {
	tests := map[uint32]uint32{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3, 8: 0}
	for length, pad := range tests {
		assert.Equal(t, pad, padding(length), "length %v", length)
	}
}

func TestFixed(t *testing.T) {
	assert.Equal(t, 3, FixedInt(3).Int())
	assert.Equal(t, 0, FixedInt(3).Frac())
	assert.Equal(t, 2.5, FixedFloat(2.5).Float())
	assert.Equal(t, 128, FixedFloat(2.5).Frac())
	assert.Equal(t, -1.25, FixedFloat(-1.25).Float())
	assert.Equal(t, -2, FixedFloat(-1.25).Int())
	assert.Equal(t, "-1.25", FixedFloat(-1.25).String())
	assert.Equal(t, "10", FixedInt(10).String())
}

func TestRoundTrip(t *testing.T) {
	c1, c2 := pair(t)

	sender := &testObject{id: 3}
	msg := NewMessage(sender, 2)
	msg.WriteInt(-7)
	msg.WriteUint(42)
	msg.WriteFixed(FixedFloat(1.5))
	msg.WriteString("wl_compositor")
	msg.WriteString("")
	msg.WriteArray([]byte{1, 2, 3, 4, 5})
	msg.WriteNewID(NewID{Interface: "xdg_wm_base", Version: 4, ID: 9})
	msg.WriteObject(sender)
	msg.WriteObject(nil)
	require.NoError(t, msg.Build(c1))

	buf, err := c2.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), buf.Sender())
	assert.Equal(t, uint16(2), buf.Op())

	assert.Equal(t, int32(-7), buf.ReadInt())
	assert.Equal(t, uint32(42), buf.ReadUint())
	assert.Equal(t, 1.5, buf.ReadFixed().Float())
	assert.Equal(t, "wl_compositor", buf.ReadString())
	assert.Equal(t, "", buf.ReadString())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf.ReadArray())
	assert.Equal(t, NewID{Interface: "xdg_wm_base", Version: 4, ID: 9}, buf.ReadNewID())
	assert.Equal(t, uint32(3), buf.ReadObject())
	assert.Equal(t, uint32(0), buf.ReadObject())
	require.NoError(t, buf.Err())
	assert.EqualValues(t, len(msg.Bytes()), buf.Size())

	buf.ReadUint()
	assert.ErrorIs(t, buf.Err(), io.ErrUnexpectedEOF)
}

func TestMultipleMessages(t *testing.T) {
	c1, c2 := pair(t)

	sender := &testObject{id: 1}
	for i := range 10 {
		msg := NewMessage(sender, uint16(i))
		msg.WriteUint(uint32(i * 100))
		require.NoError(t, msg.Build(c1))
	}

	for i := range 10 {
		buf, err := c2.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, uint16(i), buf.Op())
		assert.Equal(t, uint32(i*100), buf.ReadUint())
		require.NoError(t, buf.Err())
	}
}

func TestFile(t *testing.T) {
	c1, c2 := pair(t)

	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, []byte("shared"), 0600))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	msg := NewMessage(&testObject{id: 5}, 0)
	msg.WriteFile(file)
	msg.WriteUint(6)
	require.NoError(t, msg.Build(c1))

	buf, err := c2.ReadMessage()
	require.NoError(t, err)
	received := buf.ReadFile()
	require.NoError(t, buf.Err())
	require.NotNil(t, received)
	defer received.Close()
	assert.Equal(t, uint32(6), buf.ReadUint())

	data, err := io.ReadAll(received)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(data))

	assert.Nil(t, buf.ReadFile())
	assert.Error(t, buf.Err())
}

func TestEOF(t *testing.T) {
	c1, c2 := pair(t)
	require.NoError(t, c1.Close())

	_, err := c2.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCloseDuringRead(t *testing.T) {
	c1, _ := pair(t)

	errs := make(chan error, 1)
	go func() {
		_, err := c1.ReadMessage()
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c1.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("ReadMessage did not return after Close")
	}
}

func TestDebug(t *testing.T) {
	c1, c2 := pair(t)

	msg := NewMessage(&testObject{id: 2}, 0)
	msg.Method = "global"
	msg.Args = []any{uint32(1), "wl_shm", uint32(1)}
	msg.WriteUint(1)
	msg.WriteString("wl_shm")
	msg.WriteUint(1)
	assert.Equal(t, `test_object@2.global(1, "wl_shm", 1)`, msg.String())
	require.NoError(t, msg.Build(c1))

	buf, err := c2.ReadMessage()
	require.NoError(t, err)
	buf.ReadUint()
	buf.ReadString()
	buf.ReadUint()
	assert.Equal(t, `wl_registry@2.global(1, "wl_shm", 1)`, buf.Debug("wl_registry@2", "global"))
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")
	assert.Equal(t, "/run/user/1000/wayland-1", SocketPath())

	t.Setenv("WAYLAND_DISPLAY", "/tmp/wayland-test")
	assert.Equal(t, "/tmp/wayland-test", SocketPath())
}

func TestListen(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wayland-0"), nil, 0600))

	path, err := NewSocketPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wayland-1"), path)

	lis, err := Listen(path)
	require.NoError(t, err)
	defer lis.Close()

	accepted := make(chan *Conn, 1)
	go func() {
		c, err := lis.AcceptUnix()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- NewConn(c)
	}()

	client, err := DialPath(path)
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	require.NotNil(t, server)
	defer server.Close()

	msg := NewMessage(&testObject{id: 1}, 1)
	msg.WriteUint(2)
	require.NoError(t, msg.Build(client))

	buf, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), buf.ReadUint())
}
