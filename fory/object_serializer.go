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

	"github.com/fory-go/fory/fory/refl"
)

// StructSerializer implements section 4.7, the Generic Object Serializer.
// One instance is built per registered struct type and cached on its
// ClassInfo; building walks the field grouper once so every subsequent
// Write/Read reuses the precomputed slot order and accessors.
type StructSerializer struct {
	resolver   *ClassResolver
	goType     reflect.Type
	group      FieldGroup
	classHash  int32
	classDef   *ClassDef
}

func NewStructSerializer(goType reflect.Type, resolver *ClassResolver) *StructSerializer {
	descriptor := refl.Describe(goType)
	goType = descriptor.GoType
	if !refl.IsZeroArgConstructible(descriptor) {
		panic("fory: " + descriptor.Name + " is not a struct type")
	}
	group := BuildFieldGroup(goType, resolver)
	s := &StructSerializer{resolver: resolver, goType: goType, group: group}
	s.classHash = computeClassHash(goType, group)
	fieldDefs := make([]FieldDef, len(group.Fields))
	for i, f := range group.Fields {
		fieldDefs[i] = FieldDef{
			Name:         f.Name,
			DeclaringCls: f.DeclaringCls,
			Type:         fieldWireType(f, resolver),
		}
	}
	s.classDef = BuildClassDef("", goType.Name(), fieldDefs)
	return s
}

func fieldWireType(f FieldDescriptor, resolver *ClassResolver) FieldType {
	switch f.Category {
	case catCollection:
		elem := FieldType{Kind: FieldTypeObject, Monomorphic: true}
		return FieldType{Kind: FieldTypeCollection, Monomorphic: true, Element: &elem}
	case catMap:
		k := FieldType{Kind: FieldTypeObject, Monomorphic: true}
		v := FieldType{Kind: FieldTypeObject, Monomorphic: true}
		return FieldType{Kind: FieldTypeMap, Monomorphic: true, Key: &k, Value: &v}
	default:
		if info := resolver.ClassInfoByType(f.GoType); info != nil && info.ClassID != NoClassID {
			return FieldType{Kind: FieldTypeRegistered, Monomorphic: f.Monomorphic, ClassID: info.ClassID}
		}
		return FieldType{Kind: FieldTypeObject, Monomorphic: f.Monomorphic}
	}
}

// computeClassHash implements the 4-byte class-version hash of section
// 4.7, folding each slot's name and category so an incompatible schema
// change on either peer is caught when check_class_version is on.
func computeClassHash(t reflect.Type, group FieldGroup) int32 {
	var h uint32 = 2166136261 // FNV-1a offset basis, 32-bit
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint32(s[i])
			h *= 16777619
		}
	}
	mix(t.Name())
	for _, f := range group.Fields {
		mix(f.Name)
		h ^= uint32(f.Category)
		h *= 16777619
	}
	return int32(h)
}

func (s *StructSerializer) Write(ctx *WriteContext, writeRef bool, writeType bool, value reflect.Value) error {
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if ctx.Config.CompatibleMode == Compatible {
		return s.writeCompatible(ctx, value)
	}
	if ctx.Config.effectiveCheckClassVersion() {
		ctx.Buf.WriteInt32(s.classHash)
	}
	for i := range s.group.Fields {
		f := &s.group.Fields[i]
		fv := value.FieldByIndex(f.Index)
		if err := s.writeSlot(ctx, f, fv); err != nil {
			return err
		}
	}
	return nil
}

// writeCompatible implements the COMPATIBLE_SCHEMA mode of section 4.7:
// each slot is tagged with its field name and framed with its own body
// length, so a reader built from a differently-shaped struct can match
// fields by name and skip ones it doesn't recognize.
func (s *StructSerializer) writeCompatible(ctx *WriteContext, value reflect.Value) error {
	ctx.Buf.WriteVarUint32(uint32(len(s.group.Fields)))
	for i := range s.group.Fields {
		f := &s.group.Fields[i]
		fv := value.FieldByIndex(f.Index)
		writeMetaString(ctx.Buf, f.Name)
		ctx.Buf.WriteInt8(int8(f.Category))

		slotBuf := NewByteBuffer(nil)
		slotCtx := *ctx
		slotCtx.Buf = slotBuf
		if err := s.writeSlot(&slotCtx, f, fv); err != nil {
			return err
		}
		ctx.Buf.WriteVarUint32(uint32(slotBuf.WriterIndex()))
		ctx.Buf.WriteBinary(slotBuf.Bytes()[:slotBuf.WriterIndex()])
	}
	return nil
}

func (s *StructSerializer) writeSlot(ctx *WriteContext, f *FieldDescriptor, fv reflect.Value) error {
	switch f.Category {
	case catPrimitive:
		writePrimitive(ctx.Buf, fv, ctx.Config.CompressNumber)
		return nil
	case catBoxedPrimitive:
		if fv.Kind() == reflect.Struct {
			has := fv.FieldByName("Has").Bool()
			ctx.Buf.WriteBool(has)
			if has {
				writePrimitive(ctx.Buf, fv.FieldByName("Value"), ctx.Config.CompressNumber)
			}
			return nil
		}
		if fv.IsNil() {
			ctx.Buf.WriteBool(false)
			return nil
		}
		ctx.Buf.WriteBool(true)
		writePrimitive(ctx.Buf, fv.Elem(), ctx.Config.CompressNumber)
		return nil
	case catFinalReference:
		return s.writeReferenceSlot(ctx, fv, true)
	case catPolymorphicReference:
		return s.writeReferenceSlot(ctx, fv, false)
	case catCollection:
		ctx.Generics.Push(f.GoType.Elem())
		err := WriteCollection(ctx, fv)
		ctx.Generics.Pop()
		return err
	case catMap:
		ctx.Generics.Push(f.GoType.Key(), f.GoType.Elem())
		err := WriteMap(ctx, fv)
		ctx.Generics.Pop()
		return err
	}
	return nil
}

func (s *StructSerializer) writeReferenceSlot(ctx *WriteContext, fv reflect.Value, monomorphic bool) error {
	if fv.Kind() == reflect.String {
		info := s.resolver.ClassInfoByType(fv.Type())
		complete, err := writeRefOrNullFor(ctx, fv, info)
		if err != nil {
			return err
		}
		if complete {
			return nil
		}
		ctx.WriteStringValue(fv.String())
		return nil
	}
	info := s.resolver.ClassInfoByType(derefType(fv.Type()))
	complete, err := writeRefOrNullFor(ctx, fv, info)
	if err != nil {
		return err
	}
	if complete {
		return nil
	}
	if info == nil || info.Serializer == nil {
		return wireErr(ctx.Buf, ErrNoSerializer)
	}
	if !monomorphic {
		if err := s.resolver.WriteClassRef(ctx.Buf, info, ctx.Config); err != nil {
			return err
		}
	}
	return info.Serializer.Write(ctx, false, false, fv)
}

func writeRefOrNullFor(ctx *WriteContext, fv reflect.Value, info *ClassInfo) (bool, error) {
	if needsRefTracking(ctx.Config.ReferenceTracking, info, ctx.Config) {
		return ctx.Refs.WriteRefOrNull(ctx.Buf, fv)
	}
	return ctx.Refs.WriteNullFlag(ctx.Buf, fv), nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func (s *StructSerializer) Read(ctx *ReadContext, readRef bool, readType bool) (reflect.Value, error) {
	if err := ctx.incDepth(); err != nil {
		return reflect.Value{}, err
	}
	defer ctx.decDepth()

	if ctx.Config.CompatibleMode == Compatible {
		return s.readCompatible(ctx)
	}

	if ctx.Config.effectiveCheckClassVersion() {
		got := ctx.Buf.ReadInt32()
		if got != s.classHash {
			return reflect.Value{}, wireErr(ctx.Buf, ErrClassVersionMismatch)
		}
	}
	ptr := reflect.New(s.goType)
	if id := ctx.claimPendingRef(); id >= 0 {
		ctx.Refs.SetReadObject(id, ptr)
	}
	value := ptr.Elem()
	for i := range s.group.Fields {
		f := &s.group.Fields[i]
		fv := value.FieldByIndex(f.Index)
		if err := s.readSlot(ctx, f, fv); err != nil {
			return reflect.Value{}, err
		}
	}
	return ptr, nil
}

// readCompatible is the mirror of writeCompatible: it matches incoming
// name-tagged slots against the local struct's fields by name, leaving
// fields absent from the wire at their zero value and discarding slots
// that have no local counterpart (section 4.7's schema evolution case,
// scenario S6).
func (s *StructSerializer) readCompatible(ctx *ReadContext) (reflect.Value, error) {
	byName := make(map[string]*FieldDescriptor, len(s.group.Fields))
	for i := range s.group.Fields {
		byName[s.group.Fields[i].Name] = &s.group.Fields[i]
	}

	ptr := reflect.New(s.goType)
	if id := ctx.claimPendingRef(); id >= 0 {
		ctx.Refs.SetReadObject(id, ptr)
	}
	value := ptr.Elem()
	count := ctx.Buf.ReadVarUint32()
	for i := uint32(0); i < count; i++ {
		name, err := readMetaString(ctx.Buf)
		if err != nil {
			return reflect.Value{}, err
		}
		wireCat := fieldCategory(ctx.Buf.ReadInt8())
		length := ctx.Buf.ReadVarUint32()
		body := ctx.Buf.ReadBinary(int(length))

		f, ok := byName[name]
		if !ok || f.Category != wireCat {
			continue
		}
		subCtx := *ctx
		subCtx.Buf = NewByteBuffer(body)
		fv := value.FieldByIndex(f.Index)
		if err := s.readSlot(&subCtx, f, fv); err != nil {
			return reflect.Value{}, err
		}
	}
	return ptr, nil
}

func (s *StructSerializer) readSlot(ctx *ReadContext, f *FieldDescriptor, fv reflect.Value) error {
	switch f.Category {
	case catPrimitive:
		return readPrimitiveInto(ctx.Buf, fv, ctx.Config.CompressNumber)
	case catBoxedPrimitive:
		present := ctx.Buf.ReadBool()
		if f.GoType.Kind() == reflect.Struct {
			if !present {
				return nil
			}
			val := reflect.New(f.GoType.Field(0).Type).Elem()
			if err := readPrimitiveInto(ctx.Buf, val, ctx.Config.CompressNumber); err != nil {
				return err
			}
			fv.FieldByName("Value").Set(val)
			fv.FieldByName("Has").SetBool(true)
			return nil
		}
		if !present {
			return nil
		}
		elem := reflect.New(f.GoType.Elem()).Elem()
		if err := readPrimitiveInto(ctx.Buf, elem, ctx.Config.CompressNumber); err != nil {
			return err
		}
		fv.Set(elem.Addr())
		return nil
	case catFinalReference:
		return s.readReferenceSlot(ctx, f, fv, true)
	case catPolymorphicReference:
		return s.readReferenceSlot(ctx, f, fv, false)
	case catCollection:
		ctx.Generics.Push(f.GoType.Elem())
		v, err := ReadCollection(ctx, f.GoType)
		ctx.Generics.Pop()
		if err != nil {
			return err
		}
		fv.Set(v)
		return nil
	case catMap:
		ctx.Generics.Push(f.GoType.Key(), f.GoType.Elem())
		v, err := ReadMap(ctx, f.GoType)
		ctx.Generics.Pop()
		if err != nil {
			return err
		}
		fv.Set(v)
		return nil
	}
	return nil
}

func (s *StructSerializer) readReferenceSlot(ctx *ReadContext, f *FieldDescriptor, fv reflect.Value, monomorphic bool) error {
	if f.GoType.Kind() == reflect.String {
		id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
		if err != nil {
			return err
		}
		if IsNullRef(id) {
			return nil
		}
		if IsBackReference(id) {
			fv.SetString(ctx.Refs.GetReadObject(id).String())
			return nil
		}
		str, err := ctx.ReadStringValue()
		if err != nil {
			return err
		}
		if id >= 0 {
			ctx.Refs.SetReadObject(id, reflect.ValueOf(str))
		}
		fv.SetString(str)
		return nil
	}
	id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
	if err != nil {
		return err
	}
	if IsNullRef(id) {
		return nil
	}
	if IsBackReference(id) {
		existing := ctx.Refs.GetReadObject(id)
		assignReferenceField(fv, existing)
		return nil
	}
	var info *ClassInfo
	if !monomorphic {
		info, err = s.resolver.ReadClassRef(ctx.Buf, ctx.Config)
		if err != nil {
			return err
		}
	} else {
		info = s.resolver.ClassInfoByType(f.GoType)
	}
	if info == nil || info.Serializer == nil {
		return wireErr(ctx.Buf, ErrNoSerializer)
	}
	ctx.pendingRef = id
	result, err := info.Serializer.Read(ctx, false, false)
	if err != nil {
		return err
	}
	ctx.Refs.SetReadObject(id, result)
	assignReferenceField(fv, result)
	return nil
}

func assignReferenceField(fv reflect.Value, result reflect.Value) {
	if !result.IsValid() {
		return
	}
	if fv.Kind() == reflect.Ptr {
		if result.Kind() == reflect.Ptr {
			fv.Set(result)
		} else {
			fv.Set(result.Addr())
		}
		return
	}
	if result.Kind() == reflect.Ptr {
		fv.Set(result.Elem())
	} else {
		fv.Set(result)
	}
}
