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

// Package threadsafe exposes the pool contract of section 5: a single
// fory.Fory is single-threaded, so concurrent callers go through a bounded
// set of instances guarded by a lock and a condition variable rather than
// sync.Pool, which gives no bound and no blocking-acquire semantics.
package threadsafe

import (
	"sync"

	"github.com/fory-go/fory/fory"
)

// Pool is the bounded collaborator described in section 5: acquire blocks
// once maxSize instances are checked out; release returns an instance to
// the idle set and wakes one waiter. The pool grows lazily from minSize to
// maxSize and never does work inside the critical section besides queue
// manipulation (section 5, "no work inside the critical section").
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	opts []fory.Option

	idle     []*fory.Fory
	minSize  int
	maxSize  int
	outCount int // instances currently checked out.
	created  int // total instances ever constructed.
}

// NewPool builds a Pool, eagerly constructing minSize idle instances so the
// first minSize acquires never block on construction.
func NewPool(minSize, maxSize int, opts ...fory.Option) *Pool {
	if maxSize < minSize {
		maxSize = minSize
	}
	p := &Pool{opts: opts, minSize: minSize, maxSize: maxSize}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < minSize; i++ {
		p.idle = append(p.idle, fory.NewFory(opts...))
		p.created++
	}
	return p
}

// Acquire returns an idle instance, growing the pool on demand up to
// maxSize, and blocking past that until Release frees one (section 5,
// "acquire blocks when all instances are in use and max_pool_size is
// reached").
func (p *Pool) Acquire() *fory.Fory {
	p.mu.Lock()
	for {
		if n := len(p.idle); n > 0 {
			f := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.outCount++
			p.mu.Unlock()
			return f
		}
		if p.created < p.maxSize {
			p.created++
			p.outCount++
			p.mu.Unlock()
			return fory.NewFory(p.opts...)
		}
		p.cond.Wait()
	}
}

// Release returns f to the idle set and wakes one waiter. Contraction is
// lazy: an idle instance above minSize simply sits unused rather than being
// torn down (section 5, "contraction is lazy").
func (p *Pool) Release(f *fory.Fory) {
	p.mu.Lock()
	p.idle = append(p.idle, f)
	p.outCount--
	p.mu.Unlock()
	p.cond.Signal()
}

// Serialize acquires an instance, serializes v, and releases it.
func (p *Pool) Serialize(v any) ([]byte, error) {
	f := p.Acquire()
	defer p.Release(f)
	return f.Serialize(v)
}

// DeserializeAny acquires an instance, decodes data, and releases it.
func (p *Pool) DeserializeAny(data []byte) (any, error) {
	f := p.Acquire()
	defer p.Release(f)
	return f.DeserializeAny(data, nil)
}

// Serialize is the generic convenience wrapper over Pool.Serialize for a
// statically known type T, matching the non-pooled fory.Serialize.
func Serialize[T any](p *Pool, value T) ([]byte, error) {
	f := p.Acquire()
	defer p.Release(f)
	return fory.Serialize(f, value)
}

// Deserialize is the generic convenience wrapper over Pool.DeserializeAny
// for a statically known type T, matching the non-pooled fory.Deserialize.
func Deserialize[T any](p *Pool, data []byte) (T, error) {
	f := p.Acquire()
	defer p.Release(f)
	return fory.Deserialize[T](f, data)
}
