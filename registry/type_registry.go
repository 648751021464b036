/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"sync"
)

// TransformFunc maps the raw value of a relation source attribute to the
// value exposed on the record.
type TransformFunc func(any) any

var (
	transformRegistry = make(map[string]TransformFunc)
	transformMu       sync.RWMutex
)

func init() {
	RegisterTransform("string", func(v any) any {
		if v == nil {
			return nil
		}
		return fmt.Sprint(v)
	})
	RegisterTransform("hex", func(v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		return hex.EncodeToString([]byte(s))
	})
	RegisterTransform("count", func(v any) any {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return rv.Len()
		case reflect.Invalid:
			return 0
		default:
			return 1
		}
	})
	RegisterTransform("first", func(v any) any {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return v
		}
		if rv.Len() == 0 {
			return nil
		}
		return rv.Index(0).Interface()
	})
}

// RegisterTransform registers a named transform for use in relation definitions.
// If a transform is already registered under name, it panics to prevent accidental overrides.
func RegisterTransform(name string, fn TransformFunc) {
	transformMu.Lock()
	defer transformMu.Unlock()
	if _, exists := transformRegistry[name]; exists {
		panic(fmt.Sprintf("transform registry: transform %q already registered", name))
	}
	transformRegistry[name] = fn
}

// GetTransform returns the transform registered under name.
func GetTransform(name string) (TransformFunc, error) {
	transformMu.RLock()
	defer transformMu.RUnlock()
	fn, ok := transformRegistry[name]
	if !ok {
		return nil, fmt.Errorf("transform registry: no transform registered as %q", name)
	}
	return fn, nil
}
