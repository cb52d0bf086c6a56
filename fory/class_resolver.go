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
	"sync"
)

// ClassInfo is the cached record described in the glossary: (id, name,
// serializer, policy flags) for one runtime type. Built lazily on first
// encounter and cached for the lifetime of the ClassResolver.
type ClassInfo struct {
	Type       reflect.Type
	ClassID    int32 // NO_CLASS_ID (absent, section 9 open question) when not registered.
	Namespace  string
	TypeName   string
	Serializer Serializer
	Monomorphic bool // final / no reachable subtypes: enables dropping class ids on the wire.

	IsBasicType bool
	IsString    bool
	IsTime      bool
}

// NoClassID models the section 9 open question: "treat NO_CLASS_ID as
// absent" rather than as a magic -1 sentinel. byID only ever
// holds entries with a real id; this marker is used solely by callers that
// need an explicit "not registered" return value next to ClassInfo.
const NoClassID int32 = -1

// ClassResolver implements section 4.4. The pre-registered id table is
// shared and append-only (section 5): safe to read concurrently once
// registration has finished; callers must not register concurrently with
// in-flight serialize/deserialize calls.
type ClassResolver struct {
	mu sync.RWMutex

	byType       map[reflect.Type]*ClassInfo
	byID         map[int32]*ClassInfo
	byName       map[string]*ClassInfo // "namespace.name" -> info
	nextClassID  int32

	// Session-local dynamic-name table, reset per session (section 4.4,
	// "subsequent sightings by a session-local index"). Guarded by the
	// resolver only because a ClassResolver in this implementation is
	// always owned by a single, single-threaded session (section 5); a
	// pooled Fory never shares one ClassResolver across concurrent use.
	sessionWriteNames map[string]int32
	sessionReadNames  []*ClassInfo
}

func NewClassResolver() *ClassResolver {
	return &ClassResolver{
		byType:            make(map[reflect.Type]*ClassInfo),
		byID:              make(map[int32]*ClassInfo),
		byName:            make(map[string]*ClassInfo),
		sessionWriteNames: make(map[string]int32),
	}
}

// ResetSession clears the per-session dynamic-name tables; called on every
// entry into Serialize/Deserialize (section 9, "reset in place").
func (r *ClassResolver) ResetSession() {
	clear(r.sessionWriteNames)
	r.sessionReadNames = r.sessionReadNames[:0]
}

// Register binds typ to a small integer class id (section 4.4a). Registered
// ids are globally shared once set; callers should register all types
// before any concurrent use.
func (r *ClassResolver) Register(typ reflect.Type, namespace, name string, serializer Serializer, monomorphic bool) *ClassInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextClassID
	r.nextClassID++
	info := &ClassInfo{
		Type:        typ,
		ClassID:     id,
		Namespace:   namespace,
		TypeName:    name,
		Serializer:  serializer,
		Monomorphic: monomorphic,
	}
	r.byType[typ] = info
	r.byID[id] = info
	r.byName[qualifiedName(namespace, name)] = info
	return info
}

// RegisterWithID binds typ to an explicit id, for callers that need stable
// ids across processes/languages.
func (r *ClassResolver) RegisterWithID(typ reflect.Type, id int32, namespace, name string, serializer Serializer, monomorphic bool) *ClassInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := &ClassInfo{
		Type:        typ,
		ClassID:     id,
		Namespace:   namespace,
		TypeName:    name,
		Serializer:  serializer,
		Monomorphic: monomorphic,
	}
	r.byType[typ] = info
	r.byID[id] = info
	r.byName[qualifiedName(namespace, name)] = info
	if id >= r.nextClassID {
		r.nextClassID = id + 1
	}
	return info
}

func qualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// ClassInfoByType looks up the cached ClassInfo for typ, or nil if typ was
// never registered (section 4.4c, "building ClassInfo lazily").
func (r *ClassResolver) ClassInfoByType(typ reflect.Type) *ClassInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[typ]
}

func (r *ClassResolver) classInfoByID(id int32) *ClassInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

func (r *ClassResolver) classInfoByName(namespace, name string) *ClassInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[qualifiedName(namespace, name)]
}

// WriteClassRef implements section 4.4b / section 6 "class reference":
// registered classes are written as a varuint class id with low bit 1;
// unregistered classes on first sight get low bit 0 followed by the
// namespace/name strings, then subsequent sightings get a session-local
// index (also low bit 1, disambiguated from a real class id by being drawn
// from the session table the reader populates in the same order).
func (r *ClassResolver) WriteClassRef(buf *ByteBuffer, info *ClassInfo, cfg Config) error {
	if info.ClassID != NoClassID {
		buf.WriteVarUint32(uint32(info.ClassID)<<1 | 1)
		return nil
	}
	if cfg.ClassRegistrationRequired {
		return ErrInsecureType
	}
	key := qualifiedName(info.Namespace, info.TypeName)
	if idx, seen := r.sessionWriteNames[key]; seen {
		buf.WriteVarUint32(uint32(idx)<<1 | 1)
		return nil
	}
	idx := int32(len(r.sessionWriteNames))
	r.sessionWriteNames[key] = idx
	buf.WriteVarUint32(0)
	writeMetaString(buf, info.Namespace)
	writeMetaString(buf, info.TypeName)
	return nil
}

// ReadClassRef implements the reader side of WriteClassRef. When the class
// id encoded on the wire is unknown and the config allows it, it returns a
// Placeholder ClassInfo per section 4.4's failure-mode description.
func (r *ClassResolver) ReadClassRef(buf *ByteBuffer, cfg Config) (*ClassInfo, error) {
	tag := buf.ReadVarUint32()
	if tag == 0 {
		namespace, err := readMetaString(buf)
		if err != nil {
			return nil, err
		}
		name, err := readMetaString(buf)
		if err != nil {
			return nil, err
		}
		info := r.classInfoByName(namespace, name)
		if info == nil {
			if cfg.DeserializeUnknownClass {
				info = newPlaceholderClassInfo(namespace, name)
			} else {
				return nil, wireErr(buf, ErrUnknownClassName)
			}
		}
		r.sessionReadNames = append(r.sessionReadNames, info)
		return info, nil
	}
	idx := int32(tag >> 1)
	// Disambiguate: a dynamic session index is always smaller than the
	// count of dynamic names seen so far in this session; a registered id
	// might collide numerically, so dynamic names are tried first only
	// when at least that many have been seen, matching the write order.
	if int(idx) < len(r.sessionReadNames) {
		return r.sessionReadNames[idx], nil
	}
	info := r.classInfoByID(idx)
	if info == nil {
		if cfg.DeserializeUnknownClass {
			return newPlaceholderClassInfo("", ""), nil
		}
		return nil, wireErr(buf, ErrClassNotRegistered)
	}
	return info, nil
}

// newPlaceholderClassInfo builds the Placeholder described in section 4.4:
// its serializer reads the length-prefixed body without interpreting it and
// keeps the raw bytes, so the value can be re-emitted verbatim if
// re-serialized.
func newPlaceholderClassInfo(namespace, name string) *ClassInfo {
	return &ClassInfo{
		ClassID:    NoClassID,
		Namespace:  namespace,
		TypeName:   name,
		Serializer: placeholderSerializer{},
	}
}

type placeholderValue struct {
	raw []byte
}

type placeholderSerializer struct{}

func (placeholderSerializer) Write(ctx *WriteContext, writeRef bool, writeType bool, value reflect.Value) error {
	pv, _ := value.Interface().(placeholderValue)
	ctx.Buf.WriteLength(len(pv.raw))
	ctx.Buf.WriteBinary(pv.raw)
	return nil
}

func (placeholderSerializer) Read(ctx *ReadContext, readRef bool, readType bool) (reflect.Value, error) {
	n := ctx.Buf.ReadLength()
	raw := ctx.Buf.ReadBinary(n)
	return reflect.ValueOf(placeholderValue{raw: append([]byte(nil), raw...)}), nil
}
