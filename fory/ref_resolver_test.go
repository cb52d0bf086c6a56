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

func TestWriteRefOrNullNullValue(t *testing.T) {
	r := NewRefResolver(true)
	buf := NewByteBuffer(nil)
	var p *int
	complete, err := r.WriteRefOrNull(buf, reflect.ValueOf(p))
	require.NoError(t, err)
	require.True(t, complete)
	nullFlag := NullFlag
	require.Equal(t, byte(nullFlag), buf.Bytes()[0:1][0])
}

// TestWriteRefOrNullSharedPointer exercises property 2/scenario S3's
// sibling case for pointer identity: the same pointer written twice emits
// a first-sight flag, then a back-reference.
func TestWriteRefOrNullSharedPointer(t *testing.T) {
	r := NewRefResolver(true)
	buf := NewByteBuffer(nil)
	v := 42
	p := &v

	complete, err := r.WriteRefOrNull(buf, reflect.ValueOf(p))
	require.NoError(t, err)
	require.False(t, complete)
	require.Equal(t, RefValueFlag, int8(buf.Bytes()[0]))

	complete, err = r.WriteRefOrNull(buf, reflect.ValueOf(p))
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, RefFlag, int8(buf.Bytes()[1]))
}

func TestTryPreserveRefIdReservesBeforeBodyForCycles(t *testing.T) {
	r := NewRefResolver(true)
	buf := NewByteBuffer(nil)
	buf.WriteInt8(RefValueFlag)
	buf.WriteInt8(RefFlag)
	buf.WriteVarUint32(0)

	id1, err := r.TryPreserveRefId(buf)
	require.NoError(t, err)
	require.Equal(t, int32(0), id1)

	// Body "construction" happens here in a real caller; we simulate the
	// cycle resolving to the reserved slot before SetReadObject is called.
	backID, err := r.TryPreserveRefId(buf)
	require.NoError(t, err)
	require.True(t, IsBackReference(backID))

	placeholder := reflect.ValueOf(struct{ X int }{X: 1})
	r.SetReadObject(id1, placeholder)
	require.Equal(t, placeholder.Interface(), r.GetReadObject(0).Interface())
}
