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

const mapHeaderPlain byte = 0

// WriteMap implements section 4.9: varuint size, header, then (key, value)
// pairs written in iteration order. The four fast paths named in the spec
// (final/final, final/poly, poly/final, poly/poly) collapse here into one
// writeElement call per side, since writeElement already takes the
// fastPath branch when the static type resolves to a monomorphic
// ClassInfo; a dedicated fast-path struct per combination would duplicate
// that logic without changing the bytes produced.
func WriteMap(ctx *WriteContext, value reflect.Value) error {
	complete, err := writeRefOrNullFor(ctx, value, nil)
	if err != nil {
		return err
	}
	if complete {
		return nil
	}
	keys := value.MapKeys()
	ctx.Buf.WriteVarUint32(uint32(len(keys)))
	ctx.Buf.WriteByte_(mapHeaderPlain)

	keyType, valType := value.Type().Key(), value.Type().Elem()
	keyInfo := ctx.Fory.classes.ClassInfoByType(derefType(keyType))
	valInfo := ctx.Fory.classes.ClassInfoByType(derefType(valType))
	keyFast := keyInfo != nil && keyInfo.Monomorphic && keyType.Kind() != reflect.Interface
	valFast := valInfo != nil && valInfo.Monomorphic && valType.Kind() != reflect.Interface

	for _, k := range keys {
		if err := writeElement(ctx, k, keyInfo, keyFast); err != nil {
			return err
		}
		v := value.MapIndex(k)
		if err := writeElement(ctx, v, valInfo, valFast); err != nil {
			return err
		}
	}
	return nil
}

// ReadMap implements the reader side of section 4.9, reading pair bodies
// back in the order they were written. WriteMap writes pairs in Go's map
// iteration order, which varies from call to call, so two serializations
// of the same map with more than one entry are not byte-identical; the
// decoded maps compare equal either way.
func ReadMap(ctx *ReadContext, goType reflect.Type) (reflect.Value, error) {
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
	_ = ctx.Buf.ReadByte_()

	result := reflect.MakeMapWithSize(goType, n)
	if id >= 0 {
		ctx.Refs.SetReadObject(id, result)
	}

	keyType, valType := goType.Key(), goType.Elem()
	keyInfo := ctx.Fory.classes.ClassInfoByType(derefType(keyType))
	valInfo := ctx.Fory.classes.ClassInfoByType(derefType(valType))
	keyFast := keyInfo != nil && keyInfo.Monomorphic && keyType.Kind() != reflect.Interface
	valFast := valInfo != nil && valInfo.Monomorphic && valType.Kind() != reflect.Interface

	for i := 0; i < n; i++ {
		k, err := readElement(ctx, keyType, keyInfo, keyFast)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := readElement(ctx, valType, valInfo, valFast)
		if err != nil {
			return reflect.Value{}, err
		}
		result.SetMapIndex(coerceTo(k, keyType), coerceTo(v, valType))
	}
	return result, nil
}

func coerceTo(v reflect.Value, target reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(target)
	}
	if v.Type() == target {
		return v
	}
	if target.Kind() == reflect.Ptr && v.Kind() != reflect.Ptr {
		if !v.CanAddr() {
			boxed := reflect.New(v.Type())
			boxed.Elem().Set(v)
			v = boxed.Elem()
		}
		return v.Addr()
	}
	if target.Kind() != reflect.Ptr && v.Kind() == reflect.Ptr {
		return v.Elem()
	}
	return v
}
