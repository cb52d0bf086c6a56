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
	"unicode/utf16"
)

// String encoding discriminators (section 4.2). The writer picks any
// encoding that faithfully represents the string; readers must support all
// three.
const (
	StringEncodingLatin1  byte = 0
	StringEncodingUTF16LE byte = 1
	StringEncodingUTF8    byte = 2
)

// WriteString encodes a string as one discriminator byte, a varuint byte
// length, then the raw encoded bytes. Pure-ASCII strings use LATIN1 (one
// byte per rune, matching the cross-language convention where LATIN1 and
// ASCII coincide); everything else uses UTF-8, which is always available
// and round-trips every Go string without loss.
func WriteString(buf *ByteBuffer, s string) {
	if isASCII(s) {
		buf.WriteByte_(StringEncodingLatin1)
		buf.WriteVarUint32(uint32(len(s)))
		buf.WriteBinary(unsafeGetBytes(s))
		return
	}
	buf.WriteByte_(StringEncodingUTF8)
	data := unsafeGetBytes(s)
	buf.WriteVarUint32(uint32(len(data)))
	buf.WriteBinary(data)
}

// WriteStringWithEncoding forces a specific encoding, used by tests that
// exercise the UTF-16LE path explicitly (section 8, property 7).
func WriteStringWithEncoding(buf *ByteBuffer, s string, encoding byte) error {
	switch encoding {
	case StringEncodingLatin1:
		if !isASCII(s) {
			return ErrInvalidStringEncoding
		}
		buf.WriteByte_(StringEncodingLatin1)
		buf.WriteVarUint32(uint32(len(s)))
		buf.WriteBinary(unsafeGetBytes(s))
	case StringEncodingUTF16LE:
		data, err := encodeUTF16LE(s)
		if err != nil {
			return err
		}
		buf.WriteByte_(StringEncodingUTF16LE)
		buf.WriteVarUint32(uint32(len(data)))
		buf.WriteBinary(data)
	case StringEncodingUTF8:
		data := unsafeGetBytes(s)
		buf.WriteByte_(StringEncodingUTF8)
		buf.WriteVarUint32(uint32(len(data)))
		buf.WriteBinary(data)
	default:
		return ErrInvalidStringEncoding
	}
	return nil
}

// ReadString decodes the discriminator-tagged wire format written by
// WriteString / WriteStringWithEncoding.
func ReadString(buf *ByteBuffer) (string, error) {
	encoding := buf.ReadByte_()
	length := int(buf.ReadVarUint32())
	data := buf.ReadBinary(length)
	switch encoding {
	case StringEncodingLatin1:
		return decodeLatin1(data), nil
	case StringEncodingUTF16LE:
		return decodeUTF16LE(data), nil
	case StringEncodingUTF8:
		return string(data), nil
	default:
		return "", wireErrAt(buf.readerIndex-length, ErrInvalidStringEncoding)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func encodeUTF16LE(s string) ([]byte, error) {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out, nil
}

func decodeUTF16LE(data []byte) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return string(utf16.Decode(units))
}
