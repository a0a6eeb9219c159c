// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflectx

import (
	"fmt"
	"reflect"
	"time"
)

// Field is a settable leaf field of a struct, found by [WalkFields].
type Field struct {
	reflect.StructField

	// Path is the names of the enclosing struct fields and this field.
	Path []string

	// Value is the settable value of the field.
	Value reflect.Value
}

// WalkFields calls fun on every exported leaf field of the struct that
// obj points to, recursing into nested struct fields (but not into
// [time.Time] and other types that can be set from a string).
// Returning false from fun stops the walk.
func WalkFields(obj any, fun func(f *Field) bool) error {
	v := NonPointerValue(reflect.ValueOf(obj))
	if v.Kind() != reflect.Struct || !v.CanAddr() {
		return fmt.Errorf("reflectx.WalkFields: need a pointer to a struct, not %T", obj)
	}
	walkFields(v, nil, fun)
	return nil
}

func walkFields(v reflect.Value, path []string, fun func(f *Field) bool) bool {
	typ := v.Type()
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		fpath := append(path[:len(path):len(path)], sf.Name)
		if sf.Type.Kind() == reflect.Struct && !isLeafStruct(sf.Type) {
			if !walkFields(fv, fpath, fun) {
				return false
			}
			continue
		}
		if !fun(&Field{StructField: sf, Path: fpath, Value: fv}) {
			return false
		}
	}
	return true
}

func isLeafStruct(typ reflect.Type) bool {
	if typ == reflect.TypeFor[time.Time]() {
		return true
	}
	_, ok := reflect.New(typ).Interface().(interface{ UnmarshalText([]byte) error })
	return ok
}

// SetFromDefaultTags sets the values of the fields of the given struct
// pointer from their `default:` struct tags, which are parsed with
// [SetString]. Fields without a default tag are left unchanged.
func SetFromDefaultTags(obj any) error {
	var err error
	werr := WalkFields(obj, func(f *Field) bool {
		def, ok := f.Tag.Lookup("default")
		if !ok {
			return true
		}
		if serr := SetString(f.Value, def); serr != nil {
			err = fmt.Errorf("reflectx.SetFromDefaultTags: field %s: %w", f.Name, serr)
			return false
		}
		return true
	})
	if werr != nil {
		return werr
	}
	return err
}
