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

// Serializer is the dynamic-dispatch registry entry of section 9: a pair of
// function-pointer-shaped methods keyed by runtime type. Every caller in
// this package writes or reads the ref-or-null flag (and any class
// reference) itself before calling Write/Read and passes false for
// writeRef/writeType and readRef/readType; the serializers in this package
// do not consult those arguments.
type Serializer interface {
	Write(ctx *WriteContext, writeRef bool, writeType bool, value reflect.Value) error
	Read(ctx *ReadContext, readRef bool, readType bool) (reflect.Value, error)
}

// GenericsStack is the propagation channel of the glossary: the struct
// serializer pushes a collection or map field's static element type(s)
// around the WriteCollection/WriteMap (ReadCollection/ReadMap) call and
// pops them afterwards. The collection/map serializers pick their fast
// paths from the container's own reflect.Type and do not read the stack.
type GenericsStack struct {
	frames [][]reflect.Type
}

func (g *GenericsStack) Push(types ...reflect.Type) {
	g.frames = append(g.frames, types)
}

func (g *GenericsStack) Pop() {
	if len(g.frames) > 0 {
		g.frames = g.frames[:len(g.frames)-1]
	}
}

func (g *GenericsStack) Top() []reflect.Type {
	if len(g.frames) == 0 {
		return nil
	}
	return g.frames[len(g.frames)-1]
}

func (g *GenericsStack) reset() {
	g.frames = g.frames[:0]
}

// WriteContext bundles everything a serializer needs on the write path: the
// destination buffer plus the per-session tables reused across calls
// (section 9, "reset in place rather than free/realloc").
type WriteContext struct {
	Buf       *ByteBuffer
	Fory      *Fory
	Refs      *RefResolver
	Generics  GenericsStack
	MetaCtx   *MetaContext
	Config    Config
}

func newWriteContext(f *Fory) *WriteContext {
	return &WriteContext{
		Buf:    NewByteBuffer(make([]byte, 0, 256)),
		Fory:   f,
		Refs:   NewRefResolver(f.config.ReferenceTracking),
		Config: f.config,
	}
}

func (c *WriteContext) reset() {
	c.Buf.Reset()
	c.Refs.ResetWrite()
	c.Generics.reset()
	c.Fory.classes.ResetSession()
	if c.MetaCtx != nil {
		c.MetaCtx.resetIfNotShared(c.Config.ShareMetaContext)
	}
}

// WriteStringValue writes a string body (section 4.2) only; callers write
// the string slot's ref-or-null flag first.
func (c *WriteContext) WriteStringValue(s string) {
	WriteString(c.Buf, s)
}

// ReadContext mirrors WriteContext on the read path, plus a recursion-depth
// guard so malformed cyclic ClassDefs or pathological nesting fail cleanly
// rather than stack-overflowing the process.
type ReadContext struct {
	Buf      *ByteBuffer
	Fory     *Fory
	Refs     *RefResolver
	Generics GenericsStack
	MetaCtx  *MetaContext
	Config   Config
	depth    int

	// pendingRef carries the ref id a caller just reserved via
	// TryPreserveRefId through to the Serializer.Read call it is about to
	// make, so a struct serializer can register its own not-yet-fully-
	// populated value under that id before recursing into fields. Without
	// this, a self-referencing structure could not resolve a cycle back to
	// an object that is still under construction (section 9).
	pendingRef int32
}

const maxReadDepth = 1000

func newReadContext(f *Fory) *ReadContext {
	return &ReadContext{
		Fory:       f,
		Refs:       NewRefResolver(f.config.ReferenceTracking),
		Config:     f.config,
		pendingRef: -1,
	}
}

func (c *ReadContext) reset(buf *ByteBuffer) {
	c.Buf = buf
	c.Refs.ResetRead()
	c.Generics.reset()
	c.Fory.classes.ResetSession()
	c.depth = 0
	c.pendingRef = -1
	if c.MetaCtx != nil {
		c.MetaCtx.resetIfNotShared(c.Config.ShareMetaContext)
	}
}

// claimPendingRef returns the ref id reserved for the next Read call, if
// any, clearing it so nested Read calls don't mistakenly reuse it.
func (c *ReadContext) claimPendingRef() int32 {
	id := c.pendingRef
	c.pendingRef = -1
	return id
}

func (c *ReadContext) incDepth() error {
	c.depth++
	if c.depth > maxReadDepth {
		return wireErr(c.Buf, ErrConstructionFailure)
	}
	return nil
}

func (c *ReadContext) decDepth() {
	c.depth--
}

func (c *ReadContext) ReadStringValue() (string, error) {
	return ReadString(c.Buf)
}
