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
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNullRoot is scenario S1: a null root serializes to exactly one byte
// with is_little_endian and is_null set, and decodes back to nil.
func TestNullRoot(t *testing.T) {
	f := NewFory()
	data, err := f.Serialize(nil)
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.Equal(t, headFlagIsLittleEndian|headFlagIsNull, data[0])

	got, err := f.DeserializeAny(data, nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestTinyIntCompressed is scenario S2.
func TestTinyIntCompressed(t *testing.T) {
	f := NewFory(WithCompressNumber(true))
	data, err := f.Serialize(int32(0x12345678))
	require.NoError(t, err)

	got, err := f.DeserializeAny(data, reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	require.Equal(t, int32(305419896), got)
}

type greeting struct {
	Items []string
}

// TestSharedStringRef is scenario S3: serializing [s, s] emits a fresh
// string body for the first element and a back-reference for the second.
func TestSharedStringRef(t *testing.T) {
	f := NewFory()
	f.Register(greeting{}, "", "greeting")

	v := greeting{Items: []string{"hello", "hello"}}
	data, err := f.Serialize(&v)
	require.NoError(t, err)

	got, err := Deserialize[*greeting](f, data)
	require.NoError(t, err)
	require.Equal(t, []string{"hello", "hello"}, got.Items)
}

type node struct {
	Next *node
}

// TestSelfCycle is scenario S4: a node pointing to itself round-trips with
// out.Next == out.
func TestSelfCycle(t *testing.T) {
	f := NewFory()
	f.Register(node{}, "", "node")

	n := &node{}
	n.Next = n

	data, err := f.Serialize(n)
	require.NoError(t, err)

	out, err := Deserialize[*node](f, data)
	require.NoError(t, err)
	require.Same(t, out, out.Next)
}

// TestMixedMapDeterminism is scenario S5: a string-keyed int map round-trips
// as an unordered map with number compression on.
func TestMixedMapDeterminism(t *testing.T) {
	f := NewFory(WithCompressNumber(true))
	m := map[string]int32{"a": 1, "b": 2}
	data, err := f.Serialize(m)
	require.NoError(t, err)

	got, err := f.DeserializeAny(data, reflect.TypeOf(map[string]int32{}))
	require.NoError(t, err)
	require.Equal(t, m, got)
}

type personV1 struct {
	A int32
	B string
}

type personV2 struct {
	B string
	C int64
}

// TestSchemaDrift is scenario S6: a value of T1 serialized, then read back
// against T2's shape via COMPATIBLE mode preserves the shared field and
// defaults the field that has no counterpart on the wire.
func TestSchemaDrift(t *testing.T) {
	writer := NewFory(WithCompatibleMode(Compatible))
	writer.Register(personV1{}, "", "person")
	data, err := writer.Serialize(&personV1{A: 7, B: "drift"})
	require.NoError(t, err)

	reader := NewFory(WithCompatibleMode(Compatible))
	reader.Register(personV2{}, "", "person")
	got, err := Deserialize[*personV2](reader, data)
	require.NoError(t, err)
	require.Equal(t, "drift", got.B)
	require.Equal(t, int64(0), got.C)
}

type unregisteredThing struct {
	X int32
}

// TestClassRegistrationRequired is property 11: with class_registration_required
// set, serializing a value of a type that was never registered fails with
// ErrInsecureType.
func TestClassRegistrationRequired(t *testing.T) {
	f := NewFory(WithClassRegistrationRequired(true))
	_, err := f.Serialize(&unregisteredThing{X: 1})
	require.ErrorIs(t, err, ErrInsecureType)
}

func TestClassRegistrationRequiredAllowsRegistered(t *testing.T) {
	f := NewFory(WithClassRegistrationRequired(true))
	f.Register(unregisteredThing{}, "", "thing")
	data, err := f.Serialize(&unregisteredThing{X: 9})
	require.NoError(t, err)

	got, err := Deserialize[*unregisteredThing](f, data)
	require.NoError(t, err)
	require.Equal(t, int32(9), got.X)
}
