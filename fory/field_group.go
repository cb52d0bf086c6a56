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

package fory

import (
	"reflect"
	"sort"
)

// fieldCategory classifies a struct field into one of the six groups of
// section 4.6. The grouper flattens inherited fields (section 9); this
// implementation only walks reflect.Struct fields directly since Go has no
// class inheritance, embedding a struct field is treated as a nested
// Object field rather than flattened, which is the natural Go analogue.
type fieldCategory int

const (
	catPrimitive fieldCategory = iota
	catBoxedPrimitive
	catFinalReference
	catPolymorphicReference
	catCollection
	catMap
)

// FieldDescriptor is one resolved struct field slot: its reflect.StructField,
// a precomputed accessor index path, and its category for group placement.
type FieldDescriptor struct {
	Name         string
	DeclaringCls string
	Index        []int // reflect.Value.FieldByIndex path
	GoType       reflect.Type
	Category     fieldCategory
	Monomorphic  bool
}

// primitiveSize returns the fixed wire size used for the "size descending"
// sort key of group 1/2; non-primitive kinds return 0.
func primitiveSize(k reflect.Kind) int {
	switch k {
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int8, reflect.Uint8, reflect.Bool:
		return 1
	case reflect.Int, reflect.Uint:
		return 8
	default:
		return 0
	}
}

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func classifyField(t reflect.Type, classes *ClassResolver) (fieldCategory, bool) {
	switch t.Kind() {
	case reflect.Ptr:
		if isPrimitiveKind(t.Elem().Kind()) {
			return catBoxedPrimitive, true
		}
		return classifyReferenceField(t.Elem(), classes)
	case reflect.Slice, reflect.Array:
		return catCollection, true
	case reflect.Map:
		return catMap, true
	case reflect.Struct, reflect.Interface:
		if isOptionalShaped(t) {
			return catBoxedPrimitive, true
		}
		return classifyReferenceField(t, classes)
	default:
		if isPrimitiveKind(t.Kind()) {
			return catPrimitive, isPrimitiveKind(t.Kind())
		}
		return classifyReferenceField(t, classes)
	}
}

// isOptionalShaped recognizes the optional.Optional[T] layout (Value T,
// Has bool) by structural shape rather than by importing the optional
// package, keeping the field grouper independent of it.
func isOptionalShaped(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return false
	}
	v, h := t.Field(0), t.Field(1)
	return v.Name == "Value" && h.Name == "Has" && h.Type.Kind() == reflect.Bool
}

func classifyReferenceField(t reflect.Type, classes *ClassResolver) (fieldCategory, bool) {
	if t.Kind() == reflect.String {
		return catFinalReference, true
	}
	if info := classes.ClassInfoByType(t); info != nil && info.Monomorphic {
		return catFinalReference, true
	}
	if t.Kind() == reflect.Struct {
		// A concrete struct type with no registered subtype info is treated
		// as monomorphic: Go has no open-ended subclassing for struct
		// values, only interfaces do.
		return catFinalReference, true
	}
	return catPolymorphicReference, true
}

// BuildFieldGroup walks t's exported fields and produces the six ordered
// groups of section 4.6, flattened into one slice in group order. Each
// group is internally sorted per its own rule; group boundaries are
// recoverable from the returned boundary indices for callers (such as
// ClassDef construction) that need per-group counts.
type FieldGroup struct {
	Fields      []FieldDescriptor
	GroupBounds [7]int // GroupBounds[g]..GroupBounds[g+1] is group g's slice range.
}

func BuildFieldGroup(t reflect.Type, classes *ClassResolver) FieldGroup {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	buckets := make([][]FieldDescriptor, 6)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}
		cat, ok := classifyField(sf.Type, classes)
		if !ok {
			continue
		}
		desc := FieldDescriptor{
			Name:         fieldWireName(sf),
			DeclaringCls: t.Name(),
			Index:        []int{i},
			GoType:       sf.Type,
			Category:     cat,
		}
		if cat == catFinalReference {
			desc.Monomorphic = true
		}
		buckets[cat] = append(buckets[cat], desc)
	}

	sort.SliceStable(buckets[catPrimitive], func(i, j int) bool {
		return sizeThenNameLess(buckets[catPrimitive], i, j)
	})
	sort.SliceStable(buckets[catBoxedPrimitive], func(i, j int) bool {
		return sizeThenNameLess(buckets[catBoxedPrimitive], i, j)
	})
	sort.SliceStable(buckets[catFinalReference], func(i, j int) bool {
		a, b := buckets[catFinalReference][i], buckets[catFinalReference][j]
		if a.GoType.Name() != b.GoType.Name() {
			return a.GoType.Name() < b.GoType.Name()
		}
		return a.Name < b.Name
	})
	sort.SliceStable(buckets[catPolymorphicReference], func(i, j int) bool {
		return buckets[catPolymorphicReference][i].Name < buckets[catPolymorphicReference][j].Name
	})
	sort.SliceStable(buckets[catCollection], func(i, j int) bool {
		return buckets[catCollection][i].Name < buckets[catCollection][j].Name
	})
	sort.SliceStable(buckets[catMap], func(i, j int) bool {
		return buckets[catMap][i].Name < buckets[catMap][j].Name
	})

	var g FieldGroup
	g.GroupBounds[0] = 0
	for cat := 0; cat < 6; cat++ {
		g.Fields = append(g.Fields, buckets[cat]...)
		g.GroupBounds[cat+1] = len(g.Fields)
	}
	return g
}

func sizeThenNameLess(fields []FieldDescriptor, i, j int) bool {
	si, sj := primitiveSize(fields[i].GoType.Kind()), primitiveSize(fields[j].GoType.Kind())
	if si != sj {
		return si > sj // descending
	}
	return fields[i].Name < fields[j].Name
}

// fieldWireName returns the wire name for a field, honoring a `fory:"name"`
// tag when present (mirrors the teacher's tag-driven naming convention).
func fieldWireName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("fory"); tag != "" && tag != "-" {
		return tag
	}
	return sf.Name
}
