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

// primitiveSerializer adapts writePrimitive/readPrimitiveInto to the
// Serializer interface, used for slots reached through the untyped
// top-level path and through generic collection/map fast paths.
type primitiveSerializer struct {
	goType reflect.Type
}

func (s primitiveSerializer) Write(ctx *WriteContext, writeRef bool, writeType bool, value reflect.Value) error {
	writePrimitive(ctx.Buf, derefValue(value), ctx.Config.CompressNumber)
	return nil
}

func (s primitiveSerializer) Read(ctx *ReadContext, readRef bool, readType bool) (reflect.Value, error) {
	dst := reflect.New(s.goType).Elem()
	if err := readPrimitiveInto(ctx.Buf, dst, ctx.Config.CompressNumber); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

type stringSerializer struct{}

func (stringSerializer) Write(ctx *WriteContext, writeRef bool, writeType bool, value reflect.Value) error {
	ctx.WriteStringValue(value.String())
	return nil
}

func (stringSerializer) Read(ctx *ReadContext, readRef bool, readType bool) (reflect.Value, error) {
	s, err := ctx.ReadStringValue()
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(s), nil
}

// basicTypeSample pairs a zero value with the cross-language TypeId (section
// 3's type table, types.go) it corresponds to, so a registered class id
// matches what a Java/Python/C++ peer would expect for the same Go kind.
type basicTypeSample struct {
	sample any
	typeID TypeId
}

// registerBasicTypes seeds the ClassResolver with the Go kinds that always
// need a ClassInfo to participate in field grouping and fast-path
// detection (section 4.6/4.8/4.9). Their class ids are the registered
// TypeId constants rather than sequential session ids, so a basic-typed
// value never needs the dynamic name path of section 4.4b.
func registerBasicTypes(classes *ClassResolver) {
	samples := []basicTypeSample{
		{false, BOOL},
		{int8(0), INT8},
		{int16(0), INT16},
		{int32(0), INT32},
		{int64(0), INT64},
		{int(0), INT64},
		{uint8(0), UINT8},
		{uint16(0), UINT16},
		{uint32(0), UINT32},
		{uint64(0), UINT64},
		{uint(0), UINT64},
		{float32(0), FLOAT},
		{float64(0), DOUBLE},
	}
	for _, s := range samples {
		t := reflect.TypeOf(s.sample)
		info := classes.RegisterWithID(t, int32(s.typeID), "", t.String(), primitiveSerializer{goType: t}, true)
		info.IsBasicType = true
	}
	strType := reflect.TypeOf("")
	info := classes.RegisterWithID(strType, int32(STRING), "", "string", stringSerializer{}, true)
	info.IsString = true
}
