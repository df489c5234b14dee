// Package protocol defines the types necessary for unmarshalling a
// protocol-specification XML file and embeds the descriptions of the
// interfaces that the module speaks.
package protocol

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"strconv"
	"sync"
)

var (
	//go:embed wayland.xml
	waylandXML []byte

	//go:embed xdg-shell.xml
	xdgShellXML []byte
)

type Protocol struct {
	Name      string `xml:"name,attr"`
	Copyright string `xml:"copyright"`

	Interfaces []Interface `xml:"interface"`
}

type Interface struct {
	Name        string      `xml:"name,attr"`
	Version     int         `xml:"version,attr"`
	Description Description `xml:"description"`

	Requests []Op   `xml:"request"`
	Events   []Op   `xml:"event"`
	Enums    []Enum `xml:"enum"`
}

// Request returns the request with the given opcode.
func (i *Interface) Request(op uint16) (Op, bool) {
	if int(op) >= len(i.Requests) {
		return Op{}, false
	}
	return i.Requests[op], true
}

// Event returns the event with the given opcode.
func (i *Interface) Event(op uint16) (Op, bool) {
	if int(op) >= len(i.Events) {
		return Op{}, false
	}
	return i.Events[op], true
}

// RequestOp returns the opcode of the named request.
func (i *Interface) RequestOp(name string) (uint16, bool) {
	for op, req := range i.Requests {
		if req.Name == name {
			return uint16(op), true
		}
	}
	return 0, false
}

// EventOp returns the opcode of the named event.
func (i *Interface) EventOp(name string) (uint16, bool) {
	for op, ev := range i.Events {
		if ev.Name == name {
			return uint16(op), true
		}
	}
	return 0, false
}

type Description struct {
	Summary string `xml:"summary,attr"`
	Full    string `xml:",chardata"`
}

type Op struct {
	Name        string      `xml:"name,attr"`
	Type        string      `xml:"type,attr"`
	Since       int         `xml:"since,attr"`
	Description Description `xml:"description"`

	Args []Arg `xml:"arg"`
}

// IsDestructor reports whether the op destroys the object it is sent
// to.
func (op Op) IsDestructor() bool {
	return op.Type == "destructor"
}

type Arg struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`

	Type      string `xml:"type,attr"`
	Interface string `xml:"interface,attr"`
	AllowNull bool   `xml:"allow-null,attr"`
	Enum      string `xml:"enum,attr"`
	Version   int    `xml:"version,attr"`
}

type Enum struct {
	Name        string      `xml:"name,attr"`
	Description Description `xml:"description"`

	Entries []Entry `xml:"entry"`
}

type Entry struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`
	Value   string `xml:"value,attr"`
}

func (e Entry) Int() (int, error) {
	v, err := strconv.ParseInt(e.Value, 0, 0)
	return int(v), err
}

// Parse decodes a protocol description.
func Parse(data []byte) (*Protocol, error) {
	var p Protocol
	err := xml.NewDecoder(bytes.NewReader(data)).Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("decode protocol XML: %w", err)
	}
	return &p, nil
}

var builtin = sync.OnceValue(func() map[string]*Interface {
	interfaces := make(map[string]*Interface)
	for _, data := range [][]byte{waylandXML, xdgShellXML} {
		p, err := Parse(data)
		if err != nil {
			panic(err)
		}
		for i := range p.Interfaces {
			interfaces[p.Interfaces[i].Name] = &p.Interfaces[i]
		}
	}
	return interfaces
})

// Lookup returns the embedded description of the named interface.
func Lookup(name string) (*Interface, bool) {
	i, ok := builtin()[name]
	return i, ok
}

// RequestName returns the name of a request for use in debugging
// output. Unknown requests are named by their opcode.
func RequestName(iface string, op uint16) string {
	if i, ok := Lookup(iface); ok {
		if req, ok := i.Request(op); ok {
			return req.Name
		}
	}
	return fmt.Sprintf("request%v", op)
}

// EventName returns the name of an event for use in debugging output.
// Unknown events are named by their opcode.
func EventName(iface string, op uint16) string {
	if i, ok := Lookup(iface); ok {
		if ev, ok := i.Event(op); ok {
			return ev.Name
		}
	}
	return fmt.Sprintf("event%v", op)
}
