// Package wltest provides an in-process compositor that speaks the
// real wire protocol, for testing clients.
//
// The compositor decodes every request using the embedded protocol
// descriptions, records it, and performs the small amount of
// bookkeeping needed for a client to get a window on screen: it
// answers sync, announces globals, tracks shm pools and buffers, and
// captures the contents of every committed buffer.
package wltest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"deedles.dev/wlgl/internal/bin"
	"deedles.dev/wlgl/protocol"
	"deedles.dev/wlgl/wire"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout is how long the Wait methods wait by default.
const DefaultTimeout = 5 * time.Second

// Global is a global object advertised by the compositor.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Request is a request received from the client.
type Request struct {
	Object    uint32
	Interface string
	Method    string
	Args      []any
}

func (r Request) String() string {
	return fmt.Sprintf("%v@%v.%v%v", r.Interface, r.Object, r.Method, r.Args)
}

// Frame is the content of a buffer at the time that it was committed
// to a surface.
type Frame struct {
	Surface uint32
	Width   int
	Height  int
	Stride  int
	Format  uint32
	Pix     []byte
}

// Pixel returns the 32-bit pixel value at (x, y).
func (f Frame) Pixel(x, y int) uint32 {
	i := y*f.Stride + x*4
	return bin.Order.Uint32(f.Pix[i : i+4])
}

type pool struct {
	file *os.File
	size int32
}

type buffer struct {
	pool   uint32
	offset int32
	width  int32
	height int32
	stride int32
	format uint32
}

type object struct {
	iface   string
	version uint32
}

// Compositor is a fake compositor serving a single client.
type Compositor struct {
	conn    *wire.Conn
	globals []Global
	done    chan struct{}

	m        sync.Mutex
	changed  chan struct{}
	objects  map[uint32]object
	requests []Request
	pools    map[uint32]*pool
	buffers  map[uint32]buffer
	attached map[uint32]uint32
	frames   []Frame
	err      error
}

// Start starts a Compositor advertising globals and returns it along
// with the client end of the connection. Both are closed when the
// test finishes.
func Start(t testing.TB, globals ...Global) (*Compositor, *wire.Conn) {
	t.Helper()

	server, client, err := wire.Pair()
	require.NoError(t, err)

	c := &Compositor{
		conn:     server,
		globals:  globals,
		done:     make(chan struct{}),
		changed:  make(chan struct{}),
		objects:  map[uint32]object{1: {iface: "wl_display", version: 1}},
		pools:    make(map[uint32]*pool),
		buffers:  make(map[uint32]buffer),
		attached: make(map[uint32]uint32),
	}
	go c.serve()

	t.Cleanup(func() {
		client.Close()
		c.Close()
	})

	return c, client
}

// Close stops the compositor.
func (c *Compositor) Close() error {
	err := c.conn.Close()
	<-c.done

	c.m.Lock()
	defer c.m.Unlock()
	for _, p := range c.pools {
		p.file.Close()
	}
	c.pools = nil
	return err
}

// Err returns the error that stopped the compositor, if any. A client
// disconnecting is not an error.
func (c *Compositor) Err() error {
	c.m.Lock()
	defer c.m.Unlock()
	return c.err
}

func (c *Compositor) serve() {
	defer close(c.done)

	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.fail(err)
			}
			return
		}

		err = c.handle(msg)
		if err != nil {
			c.fail(err)
			return
		}
	}
}

func (c *Compositor) fail(err error) {
	c.m.Lock()
	defer c.m.Unlock()

	c.err = err
	c.notify()
}

// notify wakes up waiters. The caller must hold c.m.
func (c *Compositor) notify() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Compositor) handle(msg *wire.MessageBuffer) error {
	c.m.Lock()
	obj, ok := c.objects[msg.Sender()]
	c.m.Unlock()
	if !ok {
		return wire.UnknownSenderIDError{Sender: msg.Sender(), Op: msg.Op()}
	}

	iface, ok := protocol.Lookup(obj.iface)
	if !ok {
		return fmt.Errorf("no protocol description for %v", obj.iface)
	}
	op, ok := iface.Request(msg.Op())
	if !ok {
		return wire.UnknownOpError{Interface: obj.iface, Type: "request", Op: msg.Op()}
	}

	req := Request{
		Object:    msg.Sender(),
		Interface: obj.iface,
		Method:    op.Name,
		Args:      make([]any, 0, len(op.Args)),
	}
	for _, arg := range op.Args {
		req.Args = append(req.Args, c.decodeArg(msg, arg, obj.version))
	}
	err := msg.Err()
	if err != nil {
		return fmt.Errorf("decode %v: %w", req, err)
	}

	err = c.respond(req)

	c.m.Lock()
	c.requests = append(c.requests, req)
	if op.IsDestructor() {
		delete(c.objects, req.Object)
	}
	c.notify()
	c.m.Unlock()

	if err != nil {
		return err
	}
	if op.IsDestructor() {
		return c.Send(1, "wl_display", 1, req.Object)
	}
	return nil
}

func (c *Compositor) decodeArg(msg *wire.MessageBuffer, arg protocol.Arg, version uint32) any {
	switch arg.Type {
	case "int":
		return msg.ReadInt()
	case "uint":
		return msg.ReadUint()
	case "fixed":
		return msg.ReadFixed()
	case "string":
		return msg.ReadString()
	case "object":
		return msg.ReadObject()
	case "array":
		return msg.ReadArray()
	case "fd":
		return msg.ReadFile()
	case "new_id":
		if arg.Interface == "" {
			id := msg.ReadNewID()
			c.register(id.ID, id.Interface, id.Version)
			return id
		}
		id := msg.ReadUint()
		c.register(id, arg.Interface, version)
		return id
	default:
		panic(fmt.Errorf("unknown argument type %q", arg.Type))
	}
}

func (c *Compositor) register(id uint32, iface string, version uint32) {
	if id == 0 {
		return
	}

	c.m.Lock()
	defer c.m.Unlock()
	c.objects[id] = object{iface: iface, version: version}
}

// respond performs the compositor's side of a request.
func (c *Compositor) respond(req Request) error {
	switch req.Interface + "." + req.Method {
	case "wl_display.sync":
		id := req.Args[0].(uint32)
		err := c.Send(id, "wl_callback", 0, uint32(0))
		if err != nil {
			return err
		}
		c.m.Lock()
		delete(c.objects, id)
		c.m.Unlock()
		return c.Send(1, "wl_display", 1, id)

	case "wl_display.get_registry":
		id := req.Args[0].(uint32)
		for _, g := range c.globals {
			err := c.Send(id, "wl_registry", 0, g.Name, g.Interface, g.Version)
			if err != nil {
				return err
			}
		}

	case "wl_registry.bind":
		id := req.Args[1].(wire.NewID)
		if id.Interface == "wl_shm" {
			for _, format := range []uint32{0, 1} {
				err := c.Send(id.ID, "wl_shm", 0, format)
				if err != nil {
					return err
				}
			}
		}

	case "wl_shm.create_pool":
		c.m.Lock()
		c.pools[req.Args[0].(uint32)] = &pool{
			file: req.Args[1].(*os.File),
			size: req.Args[2].(int32),
		}
		c.m.Unlock()

	case "wl_shm_pool.create_buffer":
		c.m.Lock()
		c.buffers[req.Args[0].(uint32)] = buffer{
			pool:   req.Object,
			offset: req.Args[1].(int32),
			width:  req.Args[2].(int32),
			height: req.Args[3].(int32),
			stride: req.Args[4].(int32),
			format: req.Args[5].(uint32),
		}
		c.m.Unlock()

	case "wl_shm_pool.resize":
		c.m.Lock()
		if p, ok := c.pools[req.Object]; ok {
			p.size = req.Args[0].(int32)
		}
		c.m.Unlock()

	case "wl_surface.attach":
		c.m.Lock()
		c.attached[req.Object] = req.Args[0].(uint32)
		c.m.Unlock()

	case "wl_surface.commit":
		return c.capture(req.Object)
	}

	return nil
}

// capture records the contents of the buffer attached to surface.
func (c *Compositor) capture(surface uint32) error {
	c.m.Lock()
	defer c.m.Unlock()

	id, ok := c.attached[surface]
	if !ok || (id == 0) {
		return nil
	}
	delete(c.attached, surface)

	buf, ok := c.buffers[id]
	if !ok {
		return fmt.Errorf("commit of surface %v with unknown buffer %v", surface, id)
	}
	p, ok := c.pools[buf.pool]
	if !ok {
		return fmt.Errorf("buffer %v has unknown pool %v", id, buf.pool)
	}
	size := buf.stride * buf.height
	if buf.offset+size > p.size {
		return fmt.Errorf("buffer %v exceeds its pool", id)
	}

	pix := make([]byte, size)
	_, err := p.file.ReadAt(pix, int64(buf.offset))
	if err != nil {
		return fmt.Errorf("read buffer %v: %w", id, err)
	}

	c.frames = append(c.frames, Frame{
		Surface: surface,
		Width:   int(buf.width),
		Height:  int(buf.height),
		Stride:  int(buf.stride),
		Format:  buf.format,
		Pix:     pix,
	})
	return nil
}

type sender struct {
	id    uint32
	iface string
}

func (s sender) ID() uint32        { return s.id }
func (s sender) Interface() string { return s.iface }

// Send sends an event from object id. Arguments are encoded according
// to their Go types.
func (c *Compositor) Send(id uint32, iface string, op uint16, args ...any) error {
	msg := wire.NewMessage(sender{id: id, iface: iface}, op)
	msg.Method = protocol.EventName(iface, op)
	msg.Args = args
	for _, arg := range args {
		switch arg := arg.(type) {
		case int32:
			msg.WriteInt(arg)
		case uint32:
			msg.WriteUint(arg)
		case string:
			msg.WriteString(arg)
		case []byte:
			msg.WriteArray(arg)
		case wire.Fixed:
			msg.WriteFixed(arg)
		default:
			return fmt.Errorf("unsupported event argument type %T", arg)
		}
	}
	return msg.Build(c.conn)
}

// SendEvent sends the named event from the first object implementing
// iface.
func (c *Compositor) SendEvent(iface, event string, args ...any) error {
	id, ok := c.Find(iface)
	if !ok {
		return fmt.Errorf("no %v object", iface)
	}
	desc, ok := protocol.Lookup(iface)
	if !ok {
		return fmt.Errorf("no protocol description for %v", iface)
	}
	op, ok := desc.EventOp(event)
	if !ok {
		return fmt.Errorf("%v has no event %q", iface, event)
	}
	return c.Send(id, iface, op, args...)
}

// Ping sends xdg_wm_base.ping.
func (c *Compositor) Ping(serial uint32) error {
	return c.SendEvent("xdg_wm_base", "ping", serial)
}

// Configure sends xdg_toplevel.configure followed by
// xdg_surface.configure, the way that compositors configure a new
// toplevel.
func (c *Compositor) Configure(width, height int32, serial uint32) error {
	err := c.SendEvent("xdg_toplevel", "configure", width, height, []byte{})
	if err != nil {
		return err
	}
	return c.SendEvent("xdg_surface", "configure", serial)
}

// CloseToplevel sends xdg_toplevel.close.
func (c *Compositor) CloseToplevel() error {
	return c.SendEvent("xdg_toplevel", "close")
}

// Find returns the ID of the first live object implementing iface.
func (c *Compositor) Find(iface string) (uint32, bool) {
	c.m.Lock()
	defer c.m.Unlock()

	var found uint32
	for id, obj := range c.objects {
		if (obj.iface == iface) && ((found == 0) || (id < found)) {
			found = id
		}
	}
	return found, found != 0
}

// Version returns the version that the object with the given ID was
// bound or created with.
func (c *Compositor) Version(id uint32) uint32 {
	c.m.Lock()
	defer c.m.Unlock()
	return c.objects[id].version
}

// Requests returns every recorded request for which match returns
// true. A nil match returns every request.
func (c *Compositor) Requests(match func(Request) bool) []Request {
	c.m.Lock()
	defer c.m.Unlock()

	if match == nil {
		return slices.Clone(c.requests)
	}

	var reqs []Request
	for _, req := range c.requests {
		if match(req) {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// Method matches requests by interface and method name.
func Method(iface, method string) func(Request) bool {
	return func(req Request) bool {
		return (req.Interface == iface) && (req.Method == method)
	}
}

// Frames returns every captured frame.
func (c *Compositor) Frames() []Frame {
	c.m.Lock()
	defer c.m.Unlock()
	return slices.Clone(c.frames)
}

// Wait blocks until cond returns true or the timeout expires. cond is
// called with no locks held each time the compositor's state changes.
func (c *Compositor) Wait(timeout time.Duration, cond func() bool) error {
	deadline := time.After(timeout)
	for {
		c.m.Lock()
		changed := c.changed
		err := c.err
		c.m.Unlock()

		if cond() {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case <-changed:
		case <-c.done:
			if cond() {
				return nil
			}
			return errors.New("compositor stopped")
		case <-deadline:
			return errors.New("timed out")
		}
	}
}

// WaitFor blocks until at least n requests matching match have been
// received and returns them.
func (c *Compositor) WaitFor(n int, match func(Request) bool) ([]Request, error) {
	var reqs []Request
	err := c.Wait(DefaultTimeout, func() bool {
		reqs = c.Requests(match)
		return len(reqs) >= n
	})
	return reqs, err
}
