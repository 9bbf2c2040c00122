/*
Package dep provides utilities for dependency injection.

okay, just the one.
*/
package dep

import (
	"fmt"
	"reflect"
	"runtime"
)

func missing(t any) bool {
	v := reflect.ValueOf(t)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Required returns t, or panics naming the caller if t is nil.
func Required[T any](t T) T {
	if !missing(t) {
		return t
	}
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		panic(fmt.Sprintf("missing required dependency of type %T", t))
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		panic(fmt.Sprintf("missing required dependency %T in %s (%s:%d)", t, fn.Name(), file, line))
	}
	panic(fmt.Sprintf("missing required dependency %T (%s:%d)", t, file, line))
}
