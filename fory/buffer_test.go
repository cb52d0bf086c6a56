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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func checkVarUint32(t *testing.T, value uint32) {
	buf := NewByteBuffer(nil)
	buf.WriteVarUint32(value)
	got := buf.ReadVarUint32()
	require.Equal(t, value, got)
}

func checkVarint32(t *testing.T, value int32) {
	buf := NewByteBuffer(nil)
	buf.WriteVarint32(value)
	got := buf.ReadVarint32()
	require.Equal(t, value, got)
}

// TestVarintBoundaries exercises property 6: the length boundaries named in
// section 8 round-trip for both the unsigned and zig-zagged signed codecs.
func TestVarintBoundaries(t *testing.T) {
	values := []uint32{0, 1, 1<<7 - 1, 1 << 7, 1<<14 - 1, 1 << 14, 1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 28, math.MaxUint32}
	for _, v := range values {
		checkVarUint32(t, v)
	}
	signed := []int32{0, 1, -1, math.MaxInt32, math.MinInt32, 1 << 20, -(1 << 20)}
	for _, v := range signed {
		checkVarint32(t, v)
	}
}

func TestVarUint64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 1 << 35, math.MaxUint64}
	for _, v := range values {
		buf := NewByteBuffer(nil)
		buf.WriteVarUint64(v)
		require.Equal(t, v, buf.ReadVarUint64())
	}
}

// TestEndianness exercises property 5, including NaN bit-payload fidelity.
func TestEndianness(t *testing.T) {
	buf := NewByteBuffer(nil)
	buf.WriteInt32(-123456)
	buf.WriteInt64(1234567890123)
	buf.WriteFloat32(float32(math.NaN()))
	buf.WriteFloat64(math.Inf(-1))

	require.Equal(t, int32(-123456), buf.ReadInt32())
	require.Equal(t, int64(1234567890123), buf.ReadInt64())
	require.True(t, math.IsNaN(float64(buf.ReadFloat32())))
	require.Equal(t, math.Inf(-1), buf.ReadFloat64())
}

func TestBufferGrowsPastInitialCapacity(t *testing.T) {
	buf := NewByteBuffer(nil)
	for i := 0; i < 1000; i++ {
		buf.WriteInt64(int64(i))
	}
	for i := 0; i < 1000; i++ {
		require.Equal(t, int64(i), buf.ReadInt64())
	}
}

func TestBufferSliceSharesBackingArray(t *testing.T) {
	buf := NewByteBuffer(nil)
	buf.WriteBinary([]byte("hello world"))
	sub := buf.Slice(0, 5)
	require.Equal(t, []byte("hello"), sub.Bytes()[:sub.WriterIndex()])
}

func TestBufferReadPastEndReturnsBufferError(t *testing.T) {
	buf := NewByteBuffer([]byte{1, 2})
	buf.SetWriterIndex(2)
	defer func() {
		r := recover()
		require.NotNil(t, r)
		require.IsType(t, &BufferError{}, r)
	}()
	buf.ReadInt64()
}
