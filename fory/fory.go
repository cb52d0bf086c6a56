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

import "reflect"

// Frame head bits (section 4.10).
const (
	headFlagIsNull          byte = 1 << 0
	headFlagIsLittleEndian  byte = 1 << 1
	headFlagIsCrossLanguage byte = 1 << 2
	headFlagIsOutOfBand     byte = 1 << 3
)

// Fory is the top-level entry point: one instance owns a ClassResolver
// (shared, append-only once registration is done) and lends out a
// WriteContext/ReadContext per call. A single Fory is single-threaded
// (section 5); use Pool for concurrent workloads.
type Fory struct {
	config  Config
	classes *ClassResolver
	metaCtx *MetaContext

	wctx *WriteContext
	rctx *ReadContext
}

// NewFory builds a Fory with the given options, registering the built-in
// basic types (string, numeric kinds, bool) eagerly so field grouping and
// the collection/map serializers always have a ClassInfo to resolve.
func NewFory(opts ...Option) *Fory {
	f := &Fory{
		config:  NewConfig(opts...),
		classes: NewClassResolver(),
	}
	if f.config.ShareMetaContext {
		f.metaCtx = NewMetaContext()
	}
	registerBasicTypes(f.classes)
	f.wctx = newWriteContext(f)
	f.rctx = newReadContext(f)
	f.wctx.MetaCtx = f.metaCtx
	f.rctx.MetaCtx = f.metaCtx
	return f
}

// Register binds a Go type to the resolver, building and caching its
// StructSerializer. The type is always registered as monomorphic (section
// 4.4d), since Go has no struct subclassing.
func (f *Fory) Register(sample any, namespace, name string) *ClassInfo {
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	info := f.classes.Register(t, namespace, name, nil, true)
	info.Serializer = NewStructSerializer(t, f.classes)
	return info
}

// Serialize encodes v into a fresh frame. It is the untyped entry point;
// Serialize[T] below is the generic convenience wrapper used by callers
// that know the static type.
func (f *Fory) Serialize(v any) ([]byte, error) {
	f.wctx.reset()
	buf := f.wctx.Buf
	if v == nil {
		buf.WriteByte_(headFlagIsLittleEndian | headFlagIsNull)
		return buf.Bytes()[:buf.WriterIndex()], nil
	}
	head := headFlagIsLittleEndian
	if f.config.CrossLanguage {
		head |= headFlagIsCrossLanguage
	}
	buf.WriteByte_(head)
	if f.config.CrossLanguage {
		buf.WriteByte_(f.config.LanguageTag)
	}
	value := reflect.ValueOf(v)
	if err := f.writeTopLevel(f.wctx, value); err != nil {
		return nil, err
	}
	out := make([]byte, buf.WriterIndex())
	copy(out, buf.Bytes()[:buf.WriterIndex()])
	return out, nil
}

func (f *Fory) writeTopLevel(ctx *WriteContext, value reflect.Value) error {
	switch value.Kind() {
	case reflect.String:
		complete, _ := writeRefOrNullFor(ctx, value, f.classes.ClassInfoByType(value.Type()))
		if !complete {
			ctx.WriteStringValue(value.String())
		}
		return nil
	case reflect.Slice, reflect.Array:
		return WriteCollection(ctx, value)
	case reflect.Map:
		return WriteMap(ctx, value)
	default:
		if isPrimitiveKind(derefType(value.Type()).Kind()) {
			writePrimitive(ctx.Buf, derefValue(value), ctx.Config.CompressNumber)
			return nil
		}
		info := f.classes.ClassInfoByType(derefType(value.Type()))
		if info == nil {
			if f.config.ClassRegistrationRequired {
				return ErrInsecureType
			}
			return ErrNoSerializer
		}
		complete, err := writeRefOrNullFor(ctx, value, info)
		if err != nil {
			return err
		}
		if complete {
			return nil
		}
		return info.Serializer.Write(ctx, false, false, value)
	}
}

func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// DeserializeAny decodes a frame produced by Serialize into an any.
// Serialize writes no class reference for the root value, so the root's
// type comes from targetType (string, slice, map, primitive, or registered
// struct). When targetType is nil, a null root decodes to nil; any other
// root is read as a ref-or-null flag followed by a class reference.
func (f *Fory) DeserializeAny(data []byte, targetType reflect.Type) (any, error) {
	buf := NewByteBuffer(data)
	f.rctx.reset(buf)
	head := buf.ReadByte_()
	if head&headFlagIsLittleEndian == 0 {
		return nil, wireErr(buf, ErrUnsupportedByteOrder)
	}
	if head&headFlagIsOutOfBand != 0 {
		return nil, wireErr(buf, ErrUnsupportedOutOfBand)
	}
	if head&headFlagIsNull != 0 {
		return nil, nil
	}
	if f.config.CrossLanguage {
		if head&headFlagIsCrossLanguage == 0 {
			return nil, wireErr(buf, ErrUnsupportedCrossLangMode)
		}
		buf.ReadByte_()
	}
	return f.readTopLevel(f.rctx, targetType)
}

func (f *Fory) readTopLevel(ctx *ReadContext, targetType reflect.Type) (any, error) {
	if targetType != nil {
		switch targetType.Kind() {
		case reflect.String:
			id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
			if err != nil {
				return nil, err
			}
			if IsNullRef(id) {
				return nil, nil
			}
			if IsBackReference(id) {
				return ctx.Refs.GetReadObject(id).Interface(), nil
			}
			s, err := ctx.ReadStringValue()
			if err != nil {
				return nil, err
			}
			if id >= 0 {
				ctx.Refs.SetReadObject(id, reflect.ValueOf(s))
			}
			return s, nil
		case reflect.Slice, reflect.Array:
			v, err := ReadCollection(ctx, targetType)
			if err != nil {
				return nil, err
			}
			return v.Interface(), nil
		case reflect.Map:
			v, err := ReadMap(ctx, targetType)
			if err != nil {
				return nil, err
			}
			return v.Interface(), nil
		default:
			dt := derefType(targetType)
			if isPrimitiveKind(dt.Kind()) {
				dst := reflect.New(dt).Elem()
				if err := readPrimitiveInto(ctx.Buf, dst, ctx.Config.CompressNumber); err != nil {
					return nil, err
				}
				return dst.Interface(), nil
			}
			// A caller-supplied struct target type dispatches directly to its
			// registered serializer, mirroring writeTopLevel: the top-level
			// frame carries no wire class id of its own, only a ref-or-null
			// flag, so a statically-known root type must resolve its
			// ClassInfo the same way the writer did rather than expect a
			// class reference to decode.
			if dt.Kind() == reflect.Struct {
				if info := f.classes.ClassInfoByType(dt); info != nil && info.Serializer != nil {
					id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
					if err != nil {
						return nil, err
					}
					if IsNullRef(id) {
						return nil, nil
					}
					if IsBackReference(id) {
						return ctx.Refs.GetReadObject(id).Interface(), nil
					}
					ctx.pendingRef = id
					result, rerr := info.Serializer.Read(ctx, false, false)
					if rerr != nil {
						return nil, rerr
					}
					if id >= 0 {
						ctx.Refs.SetReadObject(id, result)
					}
					return result.Interface(), nil
				}
			}
		}
	}
	id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
	if err != nil {
		return nil, err
	}
	if IsNullRef(id) {
		return nil, nil
	}
	if IsBackReference(id) {
		return ctx.Refs.GetReadObject(id).Interface(), nil
	}
	info, err := f.classes.ReadClassRef(ctx.Buf, ctx.Config)
	if err != nil {
		return nil, err
	}
	if info == nil || info.Serializer == nil {
		return nil, wireErr(ctx.Buf, ErrNoSerializer)
	}
	ctx.pendingRef = id
	result, rerr := info.Serializer.Read(ctx, false, false)
	if rerr != nil {
		return nil, rerr
	}
	ctx.Refs.SetReadObject(id, result)
	return result.Interface(), nil
}

// Serialize is the generic convenience wrapper over Fory.Serialize for a
// statically known type T.
func Serialize[T any](f *Fory, v T) ([]byte, error) {
	return f.Serialize(v)
}

// Deserialize is the generic convenience wrapper over
// Fory.DeserializeAny for a statically known type T.
func Deserialize[T any](f *Fory, data []byte) (T, error) {
	var zero T
	result, err := f.DeserializeAny(data, reflect.TypeOf(zero))
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, ErrTypeMismatch
	}
	return typed, nil
}
