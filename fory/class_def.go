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
	"github.com/spaolacci/murmur3"
)

// FieldTypeKind tags the field_type union of section 4.5.
type FieldTypeKind uint8

const (
	FieldTypeObject FieldTypeKind = 0
	FieldTypeMap    FieldTypeKind = 1
	FieldTypeCollection FieldTypeKind = 2
	FieldTypeRegistered FieldTypeKind = 3 // carries class_id = (varuint>>1) - 3 below
)

// FieldType is the tagged union encoded per field in a ClassDef (section
// 4.5): "Each field is written as one varuint whose low bit is
// is_monomorphic and whose upper bits encode the variant."
type FieldType struct {
	Kind        FieldTypeKind
	Monomorphic bool
	ClassID     int32       // valid when Kind == FieldTypeRegistered
	Key         *FieldType  // valid when Kind == FieldTypeMap
	Value       *FieldType  // valid when Kind == FieldTypeMap
	Element     *FieldType  // valid when Kind == FieldTypeCollection
}

// encode packs one FieldType as the spec's "varuint whose low bit is
// is_monomorphic and whose upper bits encode the variant": bit 0 is
// is_monomorphic, bits above encode Kind (0/1/2) or 3+class_id.
func (ft FieldType) encode(buf *ByteBuffer) {
	mono := uint32(0)
	if ft.Monomorphic {
		mono = 1
	}
	switch ft.Kind {
	case FieldTypeObject:
		buf.WriteVarUint32(mono | (0 << 1))
	case FieldTypeMap:
		buf.WriteVarUint32(mono | (1 << 1))
		ft.Key.encode(buf)
		ft.Value.encode(buf)
	case FieldTypeCollection:
		buf.WriteVarUint32(mono | (2 << 1))
		ft.Element.encode(buf)
	case FieldTypeRegistered:
		buf.WriteVarUint32(mono | uint32(3+ft.ClassID)<<1)
	}
}

func decodeFieldType(buf *ByteBuffer) FieldType {
	tag := buf.ReadVarUint32()
	mono := tag&1 == 1
	variant := tag >> 1
	switch variant {
	case 0:
		return FieldType{Kind: FieldTypeObject, Monomorphic: mono}
	case 1:
		key := decodeFieldType(buf)
		val := decodeFieldType(buf)
		return FieldType{Kind: FieldTypeMap, Monomorphic: mono, Key: &key, Value: &val}
	case 2:
		elem := decodeFieldType(buf)
		return FieldType{Kind: FieldTypeCollection, Monomorphic: mono, Element: &elem}
	default:
		return FieldType{Kind: FieldTypeRegistered, Monomorphic: mono, ClassID: int32(variant - 3)}
	}
}

// FieldDef pairs a field name with its wire FieldType, the unit the
// ClassDef builder enumerates per field (section 4.5).
type FieldDef struct {
	Name         string
	DeclaringCls string // disambiguates shadowed names across inherited classes (section 9).
	Type         FieldType
}

// ClassDef is the COMPATIBLE-mode schema record of section 4.5: a
// content-hash-deduplicated blob of header + fields + optional extension
// metadata, addressed by its Meta Context session index once transmitted.
type ClassDef struct {
	ID          uint64 // murmur3 content hash of the encoded blob.
	Namespace   string
	TypeName    string
	Fields      []FieldDef
	Compressed  bool
	HasExtMeta  bool
}

// classDefHeaderBits packs the flags named in section 4.5: "schema-
// compatible bit, 2-byte-size bit, extension bit" alongside the blob length.
const (
	classDefFlagCompressed  = 1 << 0
	classDefFlagTwoByteSize = 1 << 1
	classDefFlagHasExtMeta  = 1 << 2
)

// BuildClassDef enumerates fields in the §4.6 sorted order and computes the
// content hash over the encoded blob, so two peers with identical schemas
// agree on ID without out-of-band negotiation.
func BuildClassDef(namespace, typeName string, fields []FieldDef) *ClassDef {
	cd := &ClassDef{Namespace: namespace, TypeName: typeName, Fields: fields}
	blob := cd.encodeBlob()
	cd.ID = murmur3.Sum64(blob)
	return cd
}

func (cd *ClassDef) encodeBlob() []byte {
	buf := NewByteBuffer(make([]byte, 0, 64))
	flags := byte(0)
	if cd.Compressed {
		flags |= classDefFlagCompressed
	}
	if cd.HasExtMeta {
		flags |= classDefFlagHasExtMeta
	}
	buf.WriteByte_(flags)
	WriteString(buf, cd.Namespace)
	WriteString(buf, cd.TypeName)
	buf.WriteLength(len(cd.Fields))
	for _, f := range cd.Fields {
		WriteString(buf, f.Name)
		WriteString(buf, f.DeclaringCls)
		f.Type.encode(buf)
	}
	body := buf.Bytes()[:buf.WriterIndex()]
	sized := NewByteBuffer(make([]byte, 0, len(body)+8))
	headerWord := uint32(len(body))<<3 | uint32(flags)
	sized.WriteVarUint32(headerWord)
	sized.WriteBinary(body)
	return sized.Bytes()[:sized.WriterIndex()]
}

// DecodeClassDef parses the wire layout produced by encodeBlob.
func DecodeClassDef(buf *ByteBuffer) (*ClassDef, error) {
	headerWord := buf.ReadVarUint32()
	flags := byte(headerWord & 0x7)
	length := int(headerWord >> 3)
	_ = length
	cd := &ClassDef{
		Compressed: flags&classDefFlagCompressed != 0,
		HasExtMeta: flags&classDefFlagHasExtMeta != 0,
	}
	ns, err := ReadString(buf)
	if err != nil {
		return nil, err
	}
	name, err := ReadString(buf)
	if err != nil {
		return nil, err
	}
	cd.Namespace, cd.TypeName = ns, name
	n := buf.ReadLength()
	cd.Fields = make([]FieldDef, n)
	for i := 0; i < n; i++ {
		fname, err := ReadString(buf)
		if err != nil {
			return nil, err
		}
		decl, err := ReadString(buf)
		if err != nil {
			return nil, err
		}
		cd.Fields[i] = FieldDef{Name: fname, DeclaringCls: decl, Type: decodeFieldType(buf)}
	}
	return cd, nil
}

// MetaContext is the per-session deduplication table of the glossary: each
// distinct ClassDef is transmitted at most once per session, subsequent
// references use its session-local index (section 4.5).
type MetaContext struct {
	writtenByID map[uint64]int32
	writeOrder  []*ClassDef
	readOrder   []*ClassDef
	shared      bool
}

func NewMetaContext() *MetaContext {
	return &MetaContext{writtenByID: make(map[uint64]int32)}
}

func (m *MetaContext) resetIfNotShared(shareEnabled bool) {
	m.shared = shareEnabled
	if shareEnabled {
		return
	}
	clear(m.writtenByID)
	m.writeOrder = m.writeOrder[:0]
	m.readOrder = m.readOrder[:0]
}

// WriteClassDef writes a ClassDef reference: first sight emits the full
// blob, subsequent sightings (within the session, or forever when
// share_meta_context is on) emit only the session-local varuint index.
func (m *MetaContext) WriteClassDef(buf *ByteBuffer, cd *ClassDef) {
	if idx, seen := m.writtenByID[cd.ID]; seen {
		buf.WriteVarUint32(uint32(idx)<<1 | 1)
		return
	}
	idx := int32(len(m.writeOrder))
	m.writtenByID[cd.ID] = idx
	m.writeOrder = append(m.writeOrder, cd)
	buf.WriteVarUint32(0)
	buf.WriteBinary(cd.encodeBlob())
}

// ReadClassDef is the reader counterpart of WriteClassDef.
func (m *MetaContext) ReadClassDef(buf *ByteBuffer) (*ClassDef, error) {
	tag := buf.ReadVarUint32()
	if tag == 0 {
		cd, err := DecodeClassDef(buf)
		if err != nil {
			return nil, err
		}
		m.readOrder = append(m.readOrder, cd)
		return cd, nil
	}
	idx := int(tag >> 1)
	if idx < 0 || idx >= len(m.readOrder) {
		return nil, wireErr(buf, ErrIncompatibleSchema)
	}
	return m.readOrder[idx], nil
}
