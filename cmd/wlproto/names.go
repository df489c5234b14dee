package main

import (
	"strings"
	"unicode"

	"deedles.dev/wlgl/protocol"
)

// typeName returns the name that package wl gives to the type for
// iface. Prefixes are stripped unless that would make the name collide
// with a core interface.
func typeName(iface string) string {
	if v, ok := strings.CutPrefix(iface, "wl_"); ok {
		return camel(v)
	}
	if v, ok := strings.CutPrefix(iface, "xdg_"); ok {
		if _, core := protocol.Lookup("wl_" + v); core {
			return "Xdg" + camel(v)
		}
		return camel(v)
	}
	return camel(iface)
}

// eventName returns the name of the event type for an event of iface.
func eventName(iface, event string) string {
	return typeName(iface) + camel(event)
}

func camel(v string) string {
	var buf strings.Builder
	buf.Grow(len(v))
	shift := true
	for _, c := range v {
		if c == '_' {
			shift = true
			continue
		}

		if shift {
			c = unicode.ToUpper(c)
		}
		buf.WriteRune(c)
		shift = false
	}
	return buf.String()
}
