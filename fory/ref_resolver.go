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
	"unsafe"
)

// Reference flags (section 3, "Reference Table"; section 6, "Sentinels").
// These four values are fixed by the wire contract and must never change.
const (
	NullFlag         int8 = -3
	RefFlag          int8 = -2
	NotNullValueFlag int8 = -1
	RefValueFlag     int8 = 0
)

// RefResolver assigns stable integer ids to already-seen objects during a
// single serialize/deserialize call, preserving identity and supporting
// cycles (section 4.3). One instance is reused across calls via reset
// rather than reallocated, per the pooling guidance in section 9.
type RefResolver struct {
	trackingEnabled bool

	// write side: identity (pointer value) -> first-seen id.
	writtenRefs map[uintptr]int32
	nextWriteID int32

	// read side: id -> materialized object, in first-seen order. A reserved
	// slot holds an invalid reflect.Value until set_read_object fills it in,
	// which is what lets a cycle resolve back to the same, still-under-
	// construction object.
	readRefs []reflect.Value
}

// NewRefResolver creates a resolver; trackingEnabled mirrors the
// reference_tracking configuration flag (section 6).
func NewRefResolver(trackingEnabled bool) *RefResolver {
	return &RefResolver{
		trackingEnabled: trackingEnabled,
		writtenRefs:     make(map[uintptr]int32),
		readRefs:        make([]reflect.Value, 0, 16),
	}
}

func (r *RefResolver) ResetWrite() {
	clear(r.writtenRefs)
	r.nextWriteID = 0
}

func (r *RefResolver) ResetRead() {
	r.readRefs = r.readRefs[:0]
}

// needsRefTracking implements the policy hook in section 4.3: some types
// are excluded from ref tracking even when tracking is globally enabled.
// basicTypesRefIgnored/stringRefIgnored/timeRefIgnored are threaded in from
// Config via the class resolver's ClassInfo.
func needsRefTracking(trackingEnabled bool, info *ClassInfo, cfg Config) bool {
	if !trackingEnabled {
		return false
	}
	if info == nil {
		return true
	}
	switch {
	case info.IsString && cfg.StringRefIgnored:
		return false
	case info.IsBasicType && cfg.BasicTypesRefIgnored:
		return false
	case info.IsTime && cfg.TimeRefIgnored:
		return false
	}
	return true
}

// identityOf extracts a pointer-equality key for value, or ok=false when
// value's kind has no stable identity to key on (e.g. a plain struct passed
// by value rather than by pointer).
func identityOf(value reflect.Value) (uintptr, bool) {
	switch value.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		if value.IsNil() {
			return 0, false
		}
		return value.Pointer(), true
	case reflect.Slice:
		if value.IsNil() {
			return 0, false
		}
		return value.Pointer(), true
	case reflect.Interface:
		if value.IsNil() {
			return 0, false
		}
		return identityOf(value.Elem())
	case reflect.String:
		s := value.String()
		if len(s) == 0 {
			return 0, false
		}
		return uintptr(unsafe.Pointer(unsafe.StringData(s))), true
	default:
		return 0, false
	}
}

// WriteRefOrNull implements the writer contract of section 4.3:
// write_ref_or_null. It writes exactly one flag byte (plus a varuint id on
// a back-reference) and reports whether the caller must still write the
// object body.
//
//   - obj is nil/invalid -> writes NullFlag, complete.
//   - obj already seen -> writes RefFlag + varuint id, complete.
//   - otherwise -> writes RefValueFlag (tracked) or NotNullValueFlag
//     (tracking off for this value), not complete: caller writes the body.
func (r *RefResolver) WriteRefOrNull(buf *ByteBuffer, obj reflect.Value) (complete bool, err error) {
	if !obj.IsValid() || isNilValue(obj) {
		buf.WriteInt8(NullFlag)
		return true, nil
	}
	if !r.trackingEnabled {
		buf.WriteInt8(NotNullValueFlag)
		return false, nil
	}
	ptr, trackable := identityOf(obj)
	if !trackable {
		buf.WriteInt8(NotNullValueFlag)
		return false, nil
	}
	if id, seen := r.writtenRefs[ptr]; seen {
		buf.WriteInt8(RefFlag)
		buf.WriteVarUint32(uint32(id))
		return true, nil
	}
	r.writtenRefs[ptr] = r.nextWriteID
	r.nextWriteID++
	buf.WriteInt8(RefValueFlag)
	return false, nil
}

// WriteNullFlag implements write_null_flag: like WriteRefOrNull but never
// records identity, used for types excluded from tracking (section 4.3).
func (r *RefResolver) WriteNullFlag(buf *ByteBuffer, obj reflect.Value) (complete bool) {
	if !obj.IsValid() || isNilValue(obj) {
		buf.WriteInt8(NullFlag)
		return true
	}
	buf.WriteInt8(NotNullValueFlag)
	return false
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// backRefBase is the encoding floor for back-reference ids returned by
// TryPreserveRefId: a decoded RefFlag id is returned as backRefBase-id, so
// it can never collide with a fresh non-negative RefValueFlag id or with
// the three sentinel flags above, and IsBackReference can tell the two
// apart without a second buffer read.
const backRefBase = -4

func encodeBackRef(id int32) int32 { return backRefBase - id }
func decodeBackRef(id int32) int32 { return backRefBase - id }

// TryPreserveRefId implements the reader contract of section 4.3:
// try_preserve_ref_id. It consumes one flag byte and returns:
//
//   - NullFlag (-3) when the value is null.
//   - a non-negative id when a new object follows; the caller must decode
//     the body, then call SetReadObject(id, value).
//   - an id satisfying IsBackReference when a back-reference was consumed;
//     call GetReadObject with it directly.
//   - NotNullValueFlag (-1) when an untracked value follows; no slot was
//     reserved for it.
func (r *RefResolver) TryPreserveRefId(buf *ByteBuffer) (int32, error) {
	flag := buf.ReadInt8()
	switch flag {
	case NullFlag:
		return int32(NullFlag), nil
	case RefFlag:
		id := int32(buf.ReadVarUint32())
		return encodeBackRef(id), nil
	default: // RefValueFlag or NotNullValueFlag
		if flag == RefValueFlag {
			id := int32(len(r.readRefs))
			r.readRefs = append(r.readRefs, reflect.Value{})
			return id, nil
		}
		return int32(NotNullValueFlag), nil
	}
}

// SetReadObject fills a previously reserved slot. Reserving the slot before
// recursing into the body (see TryPreserveRefId) is what lets a self-
// referencing structure resolve a back-reference to itself mid-construction
// (section 9, "Cycles and back-references").
func (r *RefResolver) SetReadObject(id int32, obj reflect.Value) {
	if id < 0 || int(id) >= len(r.readRefs) {
		return
	}
	r.readRefs[id] = obj
}

// GetReadObject resolves a back-reference id to its (possibly still being
// constructed) object.
func (r *RefResolver) GetReadObject(id int32) reflect.Value {
	if IsBackReference(id) {
		id = decodeBackRef(id)
	}
	if id < 0 || int(id) >= len(r.readRefs) {
		return reflect.Value{}
	}
	return r.readRefs[id]
}

// IsBackReference reports whether an id returned by TryPreserveRefId
// resolves to an already-materialized object (a RefFlag was read) rather
// than a fresh one the caller must still decode and register.
func IsBackReference(id int32) bool { return id <= backRefBase }
func IsNullRef(id int32) bool       { return id == int32(NullFlag) }
