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

import "github.com/fory-go/fory/fory/meta"

var (
	metaEncoder = meta.NewEncoder()
	metaDecoder = meta.NewDecoder()
)

// writeMetaString encodes a package/type name string with the cheapest
// lossless MetaString encoding (section 4.4, "package, split for
// compressibility"): one encoding byte, a varuint rune count, a varuint
// byte length, then the packed bytes.
func writeMetaString(buf *ByteBuffer, s string) {
	encoding := meta.ComputeEncoding(s)
	buf.WriteByte_(byte(encoding))
	buf.WriteVarUint32(uint32(len([]rune(s))))
	packed := metaEncoder.Encode(s, encoding)
	buf.WriteVarUint32(uint32(len(packed)))
	buf.WriteBinary(packed)
}

func readMetaString(buf *ByteBuffer) (string, error) {
	encoding := meta.Encoding(buf.ReadByte_())
	charCount := int(buf.ReadVarUint32())
	byteLen := int(buf.ReadVarUint32())
	data := buf.ReadBinary(byteLen)
	return metaDecoder.Decode(data, encoding, charCount), nil
}
