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

// collectionHeaderPlain is empty for ordinary collections (section 4.8);
// sorted collections would carry a comparator reference here, but no
// Go container in this implementation declares one, so the header is
// always a single zero byte, reserved for that extension.
const collectionHeaderPlain byte = 0

// WriteCollection implements section 4.8: a ref-or-null flag for the
// container itself (so a shared or cyclic collection round-trips, section 9),
// then varuint size, header, and elements in iteration order. The slice's
// static element type (value.Type().Elem()) decides whether the monomorphic
// fast path (no per-element class tag) applies.
func WriteCollection(ctx *WriteContext, value reflect.Value) error {
	complete, err := writeRefOrNullFor(ctx, value, nil)
	if err != nil {
		return err
	}
	if complete {
		return nil
	}
	n := value.Len()
	ctx.Buf.WriteVarUint32(uint32(n))
	ctx.Buf.WriteByte_(collectionHeaderPlain)

	elemType := value.Type().Elem()
	info := ctx.Fory.classes.ClassInfoByType(derefType(elemType))
	fastPath := info != nil && info.Monomorphic && elemType.Kind() != reflect.Interface

	for i := 0; i < n; i++ {
		elem := value.Index(i)
		if err := writeElement(ctx, elem, info, fastPath); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(ctx *WriteContext, elem reflect.Value, staticInfo *ClassInfo, fastPath bool) error {
	if elem.Kind() == reflect.Interface {
		if elem.IsNil() {
			ctx.Buf.WriteInt8(NullFlag)
			return nil
		}
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.String {
		complete, _ := writeRefOrNullFor(ctx, elem, ctx.Fory.classes.ClassInfoByType(elem.Type()))
		if complete {
			return nil
		}
		ctx.WriteStringValue(elem.String())
		return nil
	}
	info := staticInfo
	if info == nil || !fastPath {
		info = ctx.Fory.classes.ClassInfoByType(derefType(elem.Type()))
	}
	complete, err := writeRefOrNullFor(ctx, elem, info)
	if err != nil {
		return err
	}
	if complete {
		return nil
	}
	if info == nil || info.Serializer == nil {
		return wireErr(ctx.Buf, ErrNoSerializer)
	}
	if !fastPath {
		if err := ctx.Fory.classes.WriteClassRef(ctx.Buf, info, ctx.Config); err != nil {
			return err
		}
	}
	return info.Serializer.Write(ctx, false, false, elem)
}

// ReadCollection implements the reader side of section 4.8: it consumes the
// container's own ref-or-null flag and, for a fresh container, reserves its
// reference id *before* decoding elements, so a back-reference from within
// an element to the container itself resolves (section 9).
func ReadCollection(ctx *ReadContext, goType reflect.Type) (reflect.Value, error) {
	id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
	if err != nil {
		return reflect.Value{}, err
	}
	if IsNullRef(id) {
		return reflect.Zero(goType), nil
	}
	if IsBackReference(id) {
		return ctx.Refs.GetReadObject(id), nil
	}

	n := int(ctx.Buf.ReadVarUint32())
	if n < 0 {
		return reflect.Zero(goType), nil
	}
	_ = ctx.Buf.ReadByte_() // header, unused until sorted-collection support exists.

	resultPtr := reflect.New(sliceTypeOf(goType))
	resultPtr.Elem().Set(reflect.MakeSlice(sliceTypeOf(goType), n, n))
	result := resultPtr.Elem()
	if id >= 0 {
		ctx.Refs.SetReadObject(id, resultPtr)
	}

	elemType := goType.Elem()
	info := ctx.Fory.classes.ClassInfoByType(derefType(elemType))
	fastPath := info != nil && info.Monomorphic && elemType.Kind() != reflect.Interface

	for i := 0; i < n; i++ {
		elemVal, err := readElement(ctx, elemType, info, fastPath)
		if err != nil {
			return reflect.Value{}, err
		}
		if elemVal.IsValid() {
			setSliceElem(result.Index(i), elemVal, elemType)
		}
	}
	return result, nil
}

func sliceTypeOf(goType reflect.Type) reflect.Type {
	if goType.Kind() == reflect.Slice || goType.Kind() == reflect.Array {
		return reflect.SliceOf(goType.Elem())
	}
	return goType
}

func setSliceElem(dst reflect.Value, val reflect.Value, elemType reflect.Type) {
	if val.Type() == elemType {
		dst.Set(val)
		return
	}
	if elemType.Kind() == reflect.Ptr && val.Kind() != reflect.Ptr {
		if !val.CanAddr() {
			boxed := reflect.New(val.Type())
			boxed.Elem().Set(val)
			val = boxed.Elem()
		}
		dst.Set(val.Addr())
		return
	}
	if elemType.Kind() != reflect.Ptr && val.Kind() == reflect.Ptr {
		dst.Set(val.Elem())
		return
	}
	dst.Set(val)
}

func readElement(ctx *ReadContext, elemType reflect.Type, staticInfo *ClassInfo, fastPath bool) (reflect.Value, error) {
	if elemType.Kind() == reflect.String {
		id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
		if err != nil {
			return reflect.Value{}, err
		}
		if IsNullRef(id) {
			return reflect.Value{}, nil
		}
		if IsBackReference(id) {
			return ctx.Refs.GetReadObject(id), nil
		}
		s, err := ctx.ReadStringValue()
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.ValueOf(s)
		if id >= 0 {
			ctx.Refs.SetReadObject(id, v)
		}
		return v, nil
	}
	id, err := ctx.Refs.TryPreserveRefId(ctx.Buf)
	if err != nil {
		return reflect.Value{}, err
	}
	if IsNullRef(id) {
		return reflect.Value{}, nil
	}
	if IsBackReference(id) {
		return ctx.Refs.GetReadObject(id), nil
	}
	info := staticInfo
	if !fastPath {
		info, err = ctx.Fory.classes.ReadClassRef(ctx.Buf, ctx.Config)
		if err != nil {
			return reflect.Value{}, err
		}
	}
	if info == nil || info.Serializer == nil {
		return reflect.Value{}, wireErr(ctx.Buf, ErrNoSerializer)
	}
	ctx.pendingRef = id
	result, err := info.Serializer.Read(ctx, false, false)
	if err != nil {
		return reflect.Value{}, err
	}
	ctx.Refs.SetReadObject(id, result)
	return result, nil
}
