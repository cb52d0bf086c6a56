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
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStringEncodings exercises property 7 for all three encodings that
// can represent a given string.
func TestStringEncodings(t *testing.T) {
	cases := []struct {
		s         string
		encodings []byte
	}{
		{"hello", []byte{StringEncodingLatin1, StringEncodingUTF16LE, StringEncodingUTF8}},
		{"", []byte{StringEncodingLatin1, StringEncodingUTF16LE, StringEncodingUTF8}},
		{"héllo wörld", []byte{StringEncodingUTF16LE, StringEncodingUTF8}},
		{"日本語", []byte{StringEncodingUTF16LE, StringEncodingUTF8}},
	}
	for _, c := range cases {
		for _, enc := range c.encodings {
			buf := NewByteBuffer(nil)
			require.NoError(t, WriteStringWithEncoding(buf, c.s, enc))
			got, err := ReadString(buf)
			require.NoError(t, err)
			require.Equal(t, c.s, got)
		}
	}
}

func TestWriteStringPicksLatin1ForASCII(t *testing.T) {
	buf := NewByteBuffer(nil)
	WriteString(buf, "plain ascii")
	require.Equal(t, StringEncodingLatin1, buf.Bytes()[0])
}

func TestWriteStringPicksUTF8ForNonASCII(t *testing.T) {
	buf := NewByteBuffer(nil)
	WriteString(buf, "café")
	require.Equal(t, StringEncodingUTF8, buf.Bytes()[0])
}

func TestWriteStringWithEncodingRejectsNonASCIILatin1(t *testing.T) {
	buf := NewByteBuffer(nil)
	err := WriteStringWithEncoding(buf, "café", StringEncodingLatin1)
	require.ErrorIs(t, err, ErrInvalidStringEncoding)
}
