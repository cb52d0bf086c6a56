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

// CompatibleMode selects whether the peer requires identical schemas or
// tolerates drift via Class Definitions (section 4.5).
type CompatibleMode int

const (
	SchemaConsistent CompatibleMode = iota
	Compatible
)

// Config is the immutable configuration record described in section 9:
// it flows by reference through a session and is never mutated after
// construction. Build one with NewConfig and functional Option values.
type Config struct {
	ReferenceTracking bool

	BasicTypesRefIgnored bool
	StringRefIgnored     bool
	TimeRefIgnored       bool

	CompressNumber bool
	CompressString bool

	ClassRegistrationRequired bool
	SecureModeEnabled         bool
	DeserializeUnknownClass   bool

	CheckClassVersion bool
	ShareMetaContext  bool

	CompatibleMode CompatibleMode

	CrossLanguage bool
	LanguageTag   byte

	hash uint64
}

// Option mutates a Config under construction (functional-options, matching
// the teacher's constructor style elsewhere in the package).
type Option func(*Config)

func WithReferenceTracking(enabled bool) Option {
	return func(c *Config) { c.ReferenceTracking = enabled }
}

func WithBasicTypesRefIgnored(enabled bool) Option {
	return func(c *Config) { c.BasicTypesRefIgnored = enabled }
}

func WithStringRefIgnored(enabled bool) Option {
	return func(c *Config) { c.StringRefIgnored = enabled }
}

func WithTimeRefIgnored(enabled bool) Option {
	return func(c *Config) { c.TimeRefIgnored = enabled }
}

func WithCompressNumber(enabled bool) Option {
	return func(c *Config) { c.CompressNumber = enabled }
}

func WithCompressString(enabled bool) Option {
	return func(c *Config) { c.CompressString = enabled }
}

func WithClassRegistrationRequired(enabled bool) Option {
	return func(c *Config) { c.ClassRegistrationRequired = enabled }
}

func WithSecureModeEnabled(enabled bool) Option {
	return func(c *Config) { c.SecureModeEnabled = enabled }
}

func WithDeserializeUnknownClass(enabled bool) Option {
	return func(c *Config) { c.DeserializeUnknownClass = enabled }
}

func WithCheckClassVersion(enabled bool) Option {
	return func(c *Config) { c.CheckClassVersion = enabled }
}

func WithShareMetaContext(enabled bool) Option {
	return func(c *Config) { c.ShareMetaContext = enabled }
}

func WithCompatibleMode(mode CompatibleMode) Option {
	return func(c *Config) { c.CompatibleMode = mode }
}

func WithCrossLanguage(enabled bool, languageTag byte) Option {
	return func(c *Config) {
		c.CrossLanguage = enabled
		c.LanguageTag = languageTag
	}
}

// NewConfig builds a Config, applying defaults first (reference tracking and
// number compression on, everything else off, SCHEMA_CONSISTENT mode) then
// the supplied options, matching the defaults exercised by the end-to-end
// scenarios in section 8.
func NewConfig(opts ...Option) Config {
	c := Config{
		ReferenceTracking: true,
		CompressNumber:    true,
		CompatibleMode:    SchemaConsistent,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.hash = computeConfigHash(&c)
	return c
}

// effectiveCheckClassVersion implements the section 9 open-question
// resolution: the class-version hash is suppressed whenever schemas are
// allowed to diverge, i.e. in COMPATIBLE mode, regardless of the raw flag.
func (c Config) effectiveCheckClassVersion() bool {
	return c.CheckClassVersion && c.CompatibleMode == SchemaConsistent
}

// Hash returns the cache key computed once at construction (section 9,
// "computed hash on first access for cache keys" — here computed eagerly
// since Config is small and immutable, avoiding a lazy-init race).
func (c Config) Hash() uint64 { return c.hash }

func computeConfigHash(c *Config) uint64 {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	mix := func(b bool) {
		h ^= boolByte(b)
		h *= 1099511628211
	}
	mix(c.ReferenceTracking)
	mix(c.BasicTypesRefIgnored)
	mix(c.StringRefIgnored)
	mix(c.TimeRefIgnored)
	mix(c.CompressNumber)
	mix(c.CompressString)
	mix(c.ClassRegistrationRequired)
	mix(c.SecureModeEnabled)
	mix(c.DeserializeUnknownClass)
	mix(c.CheckClassVersion)
	mix(c.ShareMetaContext)
	h ^= uint64(c.CompatibleMode)
	h *= 1099511628211
	return h
}

func boolByte(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
