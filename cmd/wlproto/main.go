// Command wlproto prints the opcode tables of Wayland interfaces along
// with the names that package wl uses for them.
//
// Usage:
//
//	wlproto [-xml file] [interface ...]
//
// Without -xml, the descriptions embedded in package protocol are
// used. Without interfaces, every interface in the XML file is
// printed.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"deedles.dev/wlgl/protocol"
)

func loadXML(path string) (*protocol.Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return protocol.Parse(data)
}

func lookup(proto *protocol.Protocol, name string) (*protocol.Interface, bool) {
	if proto == nil {
		return protocol.Lookup(name)
	}
	for i := range proto.Interfaces {
		if proto.Interfaces[i].Name == name {
			return &proto.Interfaces[i], true
		}
	}
	return nil, false
}

func printInterface(w io.Writer, iface *protocol.Interface) {
	fmt.Fprintf(w, "%v\tv%v\t%v\t\n", iface.Name, iface.Version, typeName(iface.Name))
	for op, req := range iface.Requests {
		fmt.Fprintf(w, "  request %v\t%v\tsince %v\t\n", op, req.Name, max(req.Since, 1))
	}
	for op, ev := range iface.Events {
		fmt.Fprintf(w, "  event %v\t%v\tsince %v\t%v\n", op, ev.Name, max(ev.Since, 1), eventName(iface.Name, ev.Name))
	}
}

func main() {
	xmlfile := flag.String("xml", "", "protocol XML `file`")
	flag.Parse()

	var proto *protocol.Protocol
	if *xmlfile != "" {
		p, err := loadXML(*xmlfile)
		if err != nil {
			log.Fatalf("load XML: %v", err)
		}
		proto = p
	}

	names := flag.Args()
	if len(names) == 0 {
		if proto == nil {
			fmt.Fprintln(os.Stderr, "usage: wlproto [-xml file] [interface ...]")
			os.Exit(2)
		}
		for _, iface := range proto.Interfaces {
			names = append(names, iface.Name)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()

	for _, name := range names {
		iface, ok := lookup(proto, name)
		if !ok {
			w.Flush()
			log.Fatalf("unknown interface %q", name)
		}
		printInterface(w, iface)
	}
}
