package wire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"deedles.dev/wlgl/internal/set"
	"golang.org/x/sys/unix"
)

const (
	headerSize = 8

	// maxFDs is the maximum number of file descriptors that
	// libwayland will send in a single sendmsg call.
	maxFDs = 28
)

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	return filepath.Join(xdgRuntimeDir(), v)
}

// NewSocketPath attempts to generate a valid path for opening a new
// socket to listen on.
func NewSocketPath() (string, error) {
	dir := xdgRuntimeDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	names := make(set.Set[int], len(entries))
	for _, ent := range entries {
		after, ok := strings.CutPrefix(ent.Name(), "wayland-")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(after, 10, 0)
		if err != nil {
			continue
		}
		names.Add(int(n))
	}

	var num int
	for names.Has(num) {
		num++
	}

	return filepath.Join(dir, fmt.Sprintf("wayland-%v", num)), nil
}

// Conn represents a low-level Wayland connection. It is not generally
// used directly, instead being handled by a wl.Client.
//
// ReadMessage may be called from one goroutine while WriteMessage is
// called from others.
type Conn struct {
	conn *net.UnixConn

	buf []byte

	fdm sync.Mutex
	fds []int

	wm sync.Mutex
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn: c,
	}
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, fmt.Errorf("WAYLAND_SOCKET fd %v is not a Unix socket", fd)
		}
		return NewConn(uc), nil
	}

	return DialPath(SocketPath())
}

// DialPath opens a connection to the Wayland socket at path.
func DialPath(path string) (*Conn, error) {
	c, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, err
	}
	return NewConn(c), nil
}

// Listen opens a Wayland socket for a compositor to accept client
// connections on.
func Listen(path string) (*net.UnixListener, error) {
	return net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
}

// Pair returns two connected Conns. It is primarily useful for
// running a client and a compositor in the same process.
func Pair() (*Conn, *Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	c1, err := fileConn(fds[0], "wayland-pair-0")
	if err != nil {
		unix.Close(fds[1])
		return nil, nil, err
	}
	c2, err := fileConn(fds[1], "wayland-pair-1")
	if err != nil {
		c1.Close()
		return nil, nil, err
	}

	return NewConn(c1), NewConn(c2), nil
}

func fileConn(fd int, name string) (*net.UnixConn, error) {
	file := os.NewFile(uintptr(fd), name)
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", name, err)
	}
	return c.(*net.UnixConn), nil
}

// Close closes the underlying connection and any received file
// descriptors that were never claimed by a message.
func (c *Conn) Close() error {
	c.fdm.Lock()
	fds := c.fds
	c.fds = nil
	c.fdm.Unlock()

	for _, fd := range fds {
		unix.Close(fd)
	}

	return c.conn.Close()
}

// fill performs a single read from the socket, appending data to the
// read buffer and any received file descriptors to the fd queue.
func (c *Conn) fill() error {
	var data [4096]byte
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	n, oobn, _, _, err := c.conn.ReadMsgUnix(data[:], oob)
	if n > 0 {
		c.buf = append(c.buf, data[:n]...)
	}
	if oobn > 0 {
		ferr := c.readFDs(oob[:oobn])
		if ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return err
	}
	if (n == 0) && (oobn == 0) {
		return io.EOF
	}
	return nil
}

func (c *Conn) readFDs(data []byte) error {
	cmsgs, err := unix.ParseSocketControlMessage(data)
	if err != nil {
		return fmt.Errorf("parse socket control messages: %w", err)
	}

	c.fdm.Lock()
	defer c.fdm.Unlock()

	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			if errors.Is(err, unix.EINVAL) {
				continue
			}
			return fmt.Errorf("parse unix control message: %w", err)
		}
		c.fds = append(c.fds, fds...)
	}
	return nil
}

// popFD removes the oldest received file descriptor from the queue.
func (c *Conn) popFD() (int, bool) {
	c.fdm.Lock()
	defer c.fdm.Unlock()

	if len(c.fds) == 0 {
		return -1, false
	}
	fd := c.fds[0]
	c.fds = c.fds[1:]
	return fd, true
}

// ReadMessage blocks until a complete message has been received and
// returns it. File descriptors sent alongside the message are
// claimed when the message's arguments are decoded.
func (c *Conn) ReadMessage() (*MessageBuffer, error) {
	for len(c.buf) < headerSize {
		err := c.fill()
		if err != nil {
			return nil, err
		}
	}

	sender := byteOrder.Uint32(c.buf[0:4])
	so := byteOrder.Uint32(c.buf[4:8])
	size := uint16(so >> 16)
	op := uint16(so & 0xFFFF)
	if size < headerSize {
		return nil, fmt.Errorf("invalid message size %v from object %v", size, sender)
	}

	for len(c.buf) < int(size) {
		err := c.fill()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	data := make([]byte, int(size)-headerSize)
	copy(data, c.buf[headerSize:size])
	c.buf = c.buf[:copy(c.buf, c.buf[size:])]

	msg := MessageBuffer{
		sender: sender,
		op:     op,
		size:   size,
		conn:   c,
	}
	msg.data.Reset(data)
	return &msg, nil
}

// WriteMessage sends a complete, encoded message along with any file
// descriptors that it carries.
func (c *Conn) WriteMessage(data []byte, fds []int) error {
	c.wm.Lock()
	defer c.wm.Unlock()

	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}

	n, oobn, err := c.conn.WriteMsgUnix(data, oob, nil)
	if err != nil {
		return err
	}
	if (n < len(data)) || (oobn < len(oob)) {
		return io.ErrShortWrite
	}
	return nil
}
