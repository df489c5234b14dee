// Package globals discovers the global objects advertised by a
// compositor and binds the ones that a client needs.
package globals

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/internal/set"
	"deedles.dev/wlgl/internal/xslices"
	"golang.org/x/exp/maps"
)

// ErrAlreadyBound is returned when an interface is bound more than
// once from the same Registry.
var ErrAlreadyBound = errors.New("interface already bound")

// Global is a global object advertised by the compositor.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// VersionRange is an inclusive range of acceptable interface
// versions.
type VersionRange struct {
	Min uint32
	Max uint32
}

// Contains reports whether v is in the range.
func (r VersionRange) Contains(v uint32) bool {
	return (v >= r.Min) && (v <= r.Max)
}

// Accepts reports whether an advertised version can be bound at a
// version in the range. Any version at least Min is acceptable
// because a global can be bound at a lower version than advertised.
func (r VersionRange) Accepts(advertised uint32) bool {
	return advertised >= r.Min
}

// Bound returns the version that a global advertised at the given
// version is bound at.
func (r VersionRange) Bound(advertised uint32) uint32 {
	return min(advertised, r.Max)
}

func (r VersionRange) String() string {
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}

// Version ranges of the globals that wlgl binds.
var (
	CompositorRange = VersionRange{Min: 1, Max: 5}
	WmBaseRange     = VersionRange{Min: 2, Max: 6}
	ShmRange        = VersionRange{Min: 1, Max: 1}
)

// Registry is a snapshot of the globals that a compositor advertised
// when it was resolved. The snapshot does not change afterwards.
type Registry struct {
	client   *wl.Client
	registry *wl.Registry
	globals  map[uint32]Global
	bound    set.Set[string]
}

// Resolve fetches the compositor's globals with a single round trip.
// It does not retry.
func Resolve(ctx context.Context, client *wl.Client) (*Registry, error) {
	r := Registry{
		client:   client,
		registry: client.Display().GetRegistry(),
		globals:  make(map[uint32]Global),
		bound:    make(set.Set[string]),
	}

	r.registry.Handler = wl.HandlerFunc(func(ev wl.Event) error {
		switch ev := ev.(type) {
		case wl.RegistryGlobal:
			r.globals[ev.Name] = Global(ev)
		case wl.RegistryGlobalRemove:
			delete(r.globals, ev.Name)
		}
		return nil
	})

	err := client.RoundTrip(ctx)
	if err != nil {
		var cerr *wl.ConnectionError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, &wl.ConnectionError{Op: "resolve globals", Err: err}
	}

	r.registry.Handler = wl.HandlerFunc(func(ev wl.Event) error { return nil })
	return &r, nil
}

// Globals returns a copy of the snapshot, keyed by numeric name.
func (r *Registry) Globals() map[uint32]Global {
	return maps.Clone(r.globals)
}

// Lookup finds the global that would be bound for iface. If more than
// one acceptable global is advertised, the one with the lowest name
// is used.
func (r *Registry) Lookup(iface string, versions VersionRange) (Global, error) {
	all := make([]Global, 0, len(r.globals))
	for _, g := range r.globals {
		all = append(all, g)
	}
	slices.SortFunc(all, func(g1, g2 Global) int { return cmp.Compare(g1.Name, g2.Name) })

	named := xslices.Filter(all, func(g Global) bool { return g.Interface == iface })
	candidates := xslices.Filter(named, func(g Global) bool { return versions.Accepts(g.Version) })
	if len(candidates) == 0 {
		advertised := make([]uint32, 0, len(named))
		for _, g := range named {
			advertised = append(advertised, g.Version)
		}
		return Global{}, &UnsupportedInterfaceError{
			Interface:  iface,
			Versions:   versions,
			Advertised: advertised,
		}
	}
	return candidates[0], nil
}

// Bind binds iface at the highest version in versions that the
// compositor supports. Each interface may only be bound once per
// Registry.
func Bind[T any](r *Registry, iface string, versions VersionRange, bind func(*wl.Client, *wl.Registry, uint32, uint32) T) (v T, err error) {
	if r.bound.Has(iface) {
		return v, fmt.Errorf("bind %v: %w", iface, ErrAlreadyBound)
	}

	g, err := r.Lookup(iface, versions)
	if err != nil {
		return v, err
	}

	r.bound.Add(iface)
	return bind(r.client, r.registry, g.Name, versions.Bound(g.Version)), nil
}

// BindCompositor binds wl_compositor in CompositorRange.
func (r *Registry) BindCompositor() (*wl.Compositor, error) {
	return Bind(r, wl.CompositorInterface, CompositorRange, wl.BindCompositor)
}

// BindWmBase binds xdg_wm_base in WmBaseRange.
func (r *Registry) BindWmBase() (*wl.WmBase, error) {
	return Bind(r, wl.WmBaseInterface, WmBaseRange, wl.BindWmBase)
}

// BindShm binds wl_shm in ShmRange.
func (r *Registry) BindShm() (*wl.Shm, error) {
	return Bind(r, wl.ShmInterface, ShmRange, wl.BindShm)
}

// UnsupportedInterfaceError is returned when no advertised global
// satisfies a requested interface and version range.
type UnsupportedInterfaceError struct {
	Interface  string
	Versions   VersionRange
	Advertised []uint32
}

func (err *UnsupportedInterfaceError) Error() string {
	if len(err.Advertised) == 0 {
		return fmt.Sprintf("unsupported interface %v: not advertised", err.Interface)
	}
	return fmt.Sprintf("unsupported interface %v: need version %v, advertised %v", err.Interface, err.Versions, err.Advertised)
}
