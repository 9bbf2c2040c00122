/*
varz provides helpers to create expvar variables with package-qualified names,
so "dbcache.soundCacheHits" can't collide with a counter of the same name
elsewhere.  Importing it registers /debug/vars on http.DefaultServeMux; the
webapp mounts expvar.Handler explicitly.
*/
package varz

import (
	"expvar"
	"fmt"
	"runtime"
	"strings"
)

// callerPackage returns the package name of whoever called NewInt or
// NewMap.  Declared in a var block, the caller is the package's init
// function; only the package name is kept.
func callerPackage() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "varz.unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "varz.unknown"
	}

	n := fn.Name()
	if slash := strings.LastIndex(n, "/"); slash != -1 {
		n = n[slash+1:]
	}
	if dot := strings.Index(n, "."); dot != -1 {
		n = n[:dot]
	}
	return n
}

func qualified(name string) string {
	return fmt.Sprintf("%s.%s", callerPackage(), name)
}

func NewInt(name string) *expvar.Int {
	return expvar.NewInt(qualified(name))
}

func NewMap(name string) *expvar.Map {
	return expvar.NewMap(qualified(name))
}
