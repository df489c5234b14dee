// Package wl implements the client side of the core Wayland protocol
// and the parts of xdg-shell needed to show a toplevel window.
package wl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"deedles.dev/wlgl/internal/debug"
	"deedles.dev/wlgl/internal/ev"
	"deedles.dev/wlgl/internal/objstore"
	"deedles.dev/wlgl/protocol"
	"deedles.dev/wlgl/wire"
)

// ErrClosed is returned by Dispatch after the Client has been closed.
var ErrClosed = errors.New("client closed")

// Client is a connection to a Wayland compositor. Requests are queued
// with Enqueue and sent by Flush. Events are read in the background
// and processed, in the order that they were received, by Dispatch.
//
// With the exception of Enqueue, Flush and Close, a Client's methods
// and the methods of the objects created from it must only be called
// from the goroutine that calls Dispatch.
type Client struct {
	done    chan struct{}
	stopped chan struct{}
	close   sync.Once
	conn  *wire.Conn
	store *objstore.Store
	queue *ev.Queue

	m       sync.Mutex
	pending []*wire.MessageBuilder

	display *Display
}

// Dial connects to the compositor specified by the environment.
func Dial() (*Client, error) {
	c, err := wire.Dial()
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}

	return NewClient(c), nil
}

// NewClient creates a Client that communicates over conn. The Client
// takes ownership of conn.
func NewClient(conn *wire.Conn) *Client {
	client := Client{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		conn:    conn,
		store:   objstore.New(1),
		queue:   ev.NewQueue(),
	}

	client.display = &Display{}
	client.display.init(&client, DisplayInterface, 1)

	go client.listen()

	return &client
}

func (client *Client) listen() {
	defer close(client.stopped)

	for {
		msg, err := client.conn.ReadMessage()
		if err != nil {
			select {
			case <-client.done:
				return
			default:
			}

			select {
			case <-client.done:
			case client.queue.Add() <- func() error { return &ConnectionError{Op: "read", Err: err} }:
			}
			return
		}

		select {
		case <-client.done:
			return
		case client.queue.Add() <- func() error { return client.dispatch(msg) }:
		}
	}
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	_, err := client.store.Dispatch(msg)
	return err
}

// Display returns the wl_display singleton.
func (client *Client) Display() *Display {
	return client.display
}

// Close closes the connection. Any queued requests are discarded.
func (client *Client) Close() error {
	var err error
	client.close.Do(func() {
		close(client.done)

		client.m.Lock()
		pending := client.pending
		client.pending = nil
		client.m.Unlock()

		for _, msg := range pending {
			msg.Discard()
		}

		err = client.conn.Close()
		<-client.stopped
		client.queue.Stop()
	})
	return err
}

// Add registers obj, assigning it an ID if it does not already have
// one.
func (client *Client) Add(obj wire.Object) {
	client.store.Add(obj)
}

func (client *Client) Get(id uint32) wire.Object {
	return client.store.Get(id)
}

// Delete releases the object with the given ID.
func (client *Client) Delete(id uint32) {
	client.store.Delete(id)
}

// Enqueue queues a request to be sent by the next Flush.
func (client *Client) Enqueue(msg *wire.MessageBuilder) {
	client.m.Lock()
	defer client.m.Unlock()

	client.pending = append(client.pending, msg)
}

// Flush sends all queued requests in the order that they were
// queued.
func (client *Client) Flush() error {
	client.m.Lock()
	pending := client.pending
	client.pending = nil
	client.m.Unlock()

	for i, msg := range pending {
		debug.Printf(" -> %v", msg)
		err := msg.Build(client.conn)
		if err != nil {
			for _, msg := range pending[i+1:] {
				msg.Discard()
			}
			return &ConnectionError{Op: "write", Err: err}
		}
	}
	return nil
}

// Dispatch flushes queued requests, waits for the next batch of
// events and processes them in order. Requests queued while handling
// an event are flushed before the next event is handled.
//
// The first error returned by an event's handler stops processing of
// the batch and is returned after any requests that the handler queued
// have been flushed.
func (client *Client) Dispatch(ctx context.Context) error {
	select {
	case <-client.done:
		return ErrClosed
	default:
	}

	err := client.Flush()
	if err != nil {
		return err
	}

	var events *ev.Events
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-client.done:
		return ErrClosed
	case first, ok := <-client.queue.Get():
		if !ok {
			return ErrClosed
		}
		events = client.queue.Batch(first)
	}

	for {
		ok, err := events.Next()
		if !ok {
			return nil
		}
		if err != nil {
			return errors.Join(err, client.Flush())
		}

		err = client.Flush()
		if err != nil {
			return err
		}
	}
}

// RoundTrip blocks until the compositor has processed every request
// sent so far, dispatching events in the meantime.
func (client *Client) RoundTrip(ctx context.Context) error {
	var done bool
	callback := client.display.Sync()
	callback.Handler = HandlerFunc(func(ev Event) error {
		done = true
		return nil
	})

	for !done {
		err := client.Dispatch(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// ConnectionError is returned when the connection to the compositor
// fails or a round trip cannot complete.
type ConnectionError struct {
	Op  string
	Err error
}

func (err *ConnectionError) Error() string {
	return fmt.Sprintf("connection %v: %v", err.Op, err.Err)
}

func (err *ConnectionError) Unwrap() error {
	return err.Err
}

// proxy holds the state common to every protocol object.
type proxy struct {
	// Handler, if not nil, is called with each event that the object
	// receives.
	Handler Handler

	client  *Client
	id      uint32
	iface   string
	version uint32
	deleted bool
}

func (p *proxy) init(client *Client, iface string, version uint32) {
	p.client = client
	p.iface = iface
	p.version = version
}

func (p *proxy) ID() uint32 {
	return p.id
}

func (p *proxy) SetID(id uint32) {
	p.id = id
}

func (p *proxy) Interface() string {
	return p.iface
}

// Version returns the protocol version that the object was created
// with.
func (p *proxy) Version() uint32 {
	return p.version
}

func (p *proxy) Delete() {
	p.deleted = true
}

// Deleted reports whether the compositor has released the object's
// ID.
func (p *proxy) Deleted() bool {
	return p.deleted
}

func (p *proxy) name() string {
	return fmt.Sprintf("%v@%v", p.iface, p.id)
}

func (p *proxy) String() string {
	return p.name()
}

// request encodes and queues a request. Arguments are encoded
// according to their Go types.
func (p *proxy) request(op uint16, args ...any) {
	msg := wire.NewMessage(p, op)
	msg.Method = protocol.RequestName(p.iface, op)
	msg.Args = args

	for _, arg := range args {
		switch arg := arg.(type) {
		case nil:
			msg.WriteObject(nil)
		case int32:
			msg.WriteInt(arg)
		case uint32:
			msg.WriteUint(arg)
		case wire.Fixed:
			msg.WriteFixed(arg)
		case string:
			msg.WriteString(arg)
		case []byte:
			msg.WriteArray(arg)
		case *os.File:
			msg.WriteFile(arg)
		case wire.NewID:
			msg.WriteNewID(arg)
		case wire.Sender:
			msg.WriteObject(arg)
		default:
			panic(fmt.Errorf("unsupported argument type %T", arg))
		}
	}

	p.client.Enqueue(msg)
}

// emit traces a decoded event and passes it to the object's Handler.
func (p *proxy) emit(msg *wire.MessageBuffer, ev Event) error {
	err := msg.Err()
	if err != nil {
		return fmt.Errorf("decode %v.%v: %w", p.name(), protocol.EventName(p.iface, msg.Op()), err)
	}

	debug.Printf("%v", msg.Debug(p.name(), protocol.EventName(p.iface, msg.Op())))
	if p.Handler == nil {
		return nil
	}
	return p.Handler.Handle(ev)
}

func (p *proxy) unknownEvent(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: p.iface, Type: "event", Op: msg.Op()}
}
