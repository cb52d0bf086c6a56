// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package refl is the Type Descriptor API: a narrow surface over Go's
// reflection layer. The struct serializer uses it to resolve and check a
// type before building its serializer; the field grouper and the
// serializers still read reflect.Type and reflect.Value directly.
package refl

import (
	"reflect"
	"unsafe"
)

// ForyReflectValue wraps the address returned by ForyReflect, for types
// that want to hand the core an unsafe fast path instead of going through
// reflect.Value.
type ForyReflectValue struct {
	Ptr unsafe.Pointer
}

// NewForyReflectValue constructs a ForyReflectValue from a pointer.
func NewForyReflectValue(ptr unsafe.Pointer) ForyReflectValue {
	return ForyReflectValue{Ptr: ptr}
}

// ForyAddressable exposes an address for unsafe fast paths.
type ForyAddressable interface {
	ForyReflect() ForyReflectValue
}

// TypeDescriptor is the shape of one type as the core needs it: name,
// kind, and its direct fields. Building one lets a caller describe a type
// once instead of repeatedly calling reflect.Type methods inline.
type TypeDescriptor struct {
	GoType  reflect.Type
	Name    string
	Kind    reflect.Kind
	Fields  []FieldDescriptor
	Elem    *TypeDescriptor // slice/array/map element, nil otherwise
	KeyType *TypeDescriptor // map key, nil for non-maps
}

// FieldDescriptor names one struct field and its own descriptor.
type FieldDescriptor struct {
	Name     string
	Index    int
	Tag      reflect.StructTag
	Exported bool
}

// Describe builds a TypeDescriptor for t, unwrapping pointers first. It
// does not recurse into struct field types: callers that need a field's
// own shape call Describe again for that field's type, which keeps cyclic
// type graphs (section 9) from recursing unboundedly here.
func Describe(t reflect.Type) *TypeDescriptor {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	d := &TypeDescriptor{GoType: t, Name: t.Name(), Kind: t.Kind()}
	switch t.Kind() {
	case reflect.Struct:
		d.Fields = make([]FieldDescriptor, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			d.Fields[i] = FieldDescriptor{
				Name:     sf.Name,
				Index:    i,
				Tag:      sf.Tag,
				Exported: sf.PkgPath == "",
			}
		}
	case reflect.Slice, reflect.Array:
		d.Elem = Describe(t.Elem())
	case reflect.Map:
		d.KeyType = Describe(t.Key())
		d.Elem = Describe(t.Elem())
	}
	return d
}

// IsZeroArgConstructible reports whether the type can be built with
// reflect.New with no further constructor call. In Go this is always true
// for struct types: the language has no constructor that reflect.New
// bypasses, so the "prefer zero-arg constructor, else unsafe-allocate"
// decision of section 4.7 always takes its first branch here.
func IsZeroArgConstructible(d *TypeDescriptor) bool {
	return d.Kind == reflect.Struct
}
