package plugin

import "github.com/zenohflow/runtime/internal/zferrors"

// FakeLibrary is an in-memory stand-in for a loaded shared object, keyed
// by the symbol names it exports. Tests build one directly instead of
// compiling a real .so.
type FakeLibrary map[string]interface{}

// Lookup implements Library.
func (f FakeLibrary) Lookup(symName string) (interface{}, error) {
	sym, ok := f[symName]
	if !ok {
		return nil, zferrors.New(zferrors.GenericError, "symbol %q not found in fake library", symName)
	}
	return sym, nil
}

// FakeResolver maps a path to a pre-built FakeLibrary, letting tests
// exercise the loader's open/lookup/initialize/finalize sequence without
// touching the filesystem or the real plugin package.
type FakeResolver map[string]FakeLibrary

// Open implements Resolver.
func (r FakeResolver) Open(path string) (Library, error) {
	lib, ok := r[path]
	if !ok {
		return nil, zferrors.New(zferrors.IOError, "fake resolver has no library registered for %q", path)
	}
	return lib, nil
}
