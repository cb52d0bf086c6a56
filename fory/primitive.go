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

// writePrimitive encodes one primitive slot per section 4.7: raw fixed-size
// write, except i32/i64 use varint when compressNumber is on.
func writePrimitive(buf *ByteBuffer, v reflect.Value, compressNumber bool) {
	switch v.Kind() {
	case reflect.Bool:
		buf.WriteBool(v.Bool())
	case reflect.Int8:
		buf.WriteInt8(int8(v.Int()))
	case reflect.Int16:
		buf.WriteInt16(int16(v.Int()))
	case reflect.Int32:
		if compressNumber {
			buf.WriteVarint32(int32(v.Int()))
		} else {
			buf.WriteInt32(int32(v.Int()))
		}
	case reflect.Int, reflect.Int64:
		if compressNumber {
			buf.WriteVarint64(v.Int())
		} else {
			buf.WriteInt64(v.Int())
		}
	case reflect.Uint8:
		buf.WriteByte_(byte(v.Uint()))
	case reflect.Uint16:
		buf.WriteInt16(int16(v.Uint()))
	case reflect.Uint32:
		if compressNumber {
			buf.WriteVarUint32(uint32(v.Uint()))
		} else {
			buf.WriteInt32(int32(v.Uint()))
		}
	case reflect.Uint, reflect.Uint64:
		if compressNumber {
			buf.WriteVarUint64(v.Uint())
		} else {
			buf.WriteInt64(int64(v.Uint()))
		}
	case reflect.Float32:
		buf.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		buf.WriteFloat64(v.Float())
	}
}

// readPrimitiveInto decodes into an addressable primitive reflect.Value
// allocated by the caller, mirroring writePrimitive's encoding choices.
func readPrimitiveInto(buf *ByteBuffer, v reflect.Value, compressNumber bool) error {
	switch v.Kind() {
	case reflect.Bool:
		v.SetBool(buf.ReadBool())
	case reflect.Int8:
		v.SetInt(int64(buf.ReadInt8()))
	case reflect.Int16:
		v.SetInt(int64(buf.ReadInt16()))
	case reflect.Int32:
		if compressNumber {
			v.SetInt(int64(buf.ReadVarint32()))
		} else {
			v.SetInt(int64(buf.ReadInt32()))
		}
	case reflect.Int, reflect.Int64:
		if compressNumber {
			v.SetInt(buf.ReadVarint64())
		} else {
			v.SetInt(buf.ReadInt64())
		}
	case reflect.Uint8:
		v.SetUint(uint64(buf.ReadByte_()))
	case reflect.Uint16:
		v.SetUint(uint64(uint16(buf.ReadInt16())))
	case reflect.Uint32:
		if compressNumber {
			v.SetUint(uint64(buf.ReadVarUint32()))
		} else {
			v.SetUint(uint64(uint32(buf.ReadInt32())))
		}
	case reflect.Uint, reflect.Uint64:
		if compressNumber {
			v.SetUint(buf.ReadVarUint64())
		} else {
			v.SetUint(uint64(buf.ReadInt64()))
		}
	case reflect.Float32:
		v.SetFloat(float64(buf.ReadFloat32()))
	case reflect.Float64:
		v.SetFloat(buf.ReadFloat64())
	default:
		return wireErr(buf, ErrTypeMismatch)
	}
	return nil
}
