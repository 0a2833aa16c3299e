package plugin

import (
	stdplugin "plugin"

	"github.com/zenohflow/runtime/internal/zferrors"
)

// Library abstracts a single loaded shared object: just enough surface
// (symbol lookup) for the loader to find a plug-in's registration
// function. Abstracting this behind an interface, rather than using
// *stdplugin.Plugin directly, is what lets the loader be unit tested
// without compiling a real .so — see FakeResolver.
type Library interface {
	Lookup(symName string) (interface{}, error)
}

// Resolver opens a plug-in library by path.
type Resolver interface {
	Open(path string) (Library, error)
}

// StdlibResolver opens plug-ins through the standard library's plugin
// package. Go's plugin package can load a shared object but cannot
// unload one: there is no dlclose equivalent. The loader still tears
// down state, instance and handle in strict order on Close (see
// loader.go) so the ordering discipline required by the ABI stays
// structurally correct even though the handle's underlying dlclose step
// is, today, a no-op on this platform.
type StdlibResolver struct{}

// Open loads the shared object at path.
func (StdlibResolver) Open(path string) (Library, error) {
	p, err := stdplugin.Open(path)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.IOError, err, "opening plugin %q", path)
	}
	return stdlibLibrary{p}, nil
}

type stdlibLibrary struct {
	p *stdplugin.Plugin
}

func (l stdlibLibrary) Lookup(symName string) (interface{}, error) {
	sym, err := l.p.Lookup(symName)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.GenericError, err, "looking up symbol %q", symName)
	}
	return sym, nil
}
