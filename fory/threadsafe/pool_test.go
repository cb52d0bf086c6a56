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

package threadsafe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPoolBounded exercises property 12: under N concurrent acquire/release
// pairs on a pool of size k < N, every acquire eventually returns and every
// instance is returned exactly once.
func TestPoolBounded(t *testing.T) {
	const k = 3
	const n = 50

	p := NewPool(1, k)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := p.Acquire()
			_, err := f.Serialize(int32(i))
			require.NoError(t, err)
			p.Release(f)
		}(i)
	}
	wg.Wait()

	require.LessOrEqual(t, len(p.idle), k)
	require.Equal(t, 0, p.outCount)
}

func TestPoolGrowsThenBlocks(t *testing.T) {
	p := NewPool(1, 2)
	a := p.Acquire()
	b := p.Acquire()
	require.NotSame(t, a, b)

	done := make(chan struct{})
	go func() {
		c := p.Acquire()
		p.Release(c)
		close(done)
	}()

	p.Release(a)
	<-done
	p.Release(b)
}
