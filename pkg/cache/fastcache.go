// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

// defaultLocalMaxBytes is the default local cache size (32MB)
const defaultLocalMaxBytes = 32 * 1024 * 1024

// FastCache is an in-process ICache on VictoriaMetrics fastcache. The
// expiry is stored as an 8 byte unix-nano prefix on each value.
type FastCache struct {
	cache *fastcache.Cache
	now   func() time.Time
}

func NewFastCache(maxBytes int) *FastCache {
	if maxBytes <= 0 {
		maxBytes = defaultLocalMaxBytes
	}
	return &FastCache{cache: fastcache.New(maxBytes), now: time.Now}
}

func (fc *FastCache) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := fc.cache.HasGet(nil, []byte(key))
	if !ok || len(raw) < 8 {
		return nil, ErrCacheMiss
	}
	if exp := int64(binary.BigEndian.Uint64(raw[:8])); exp != 0 && fc.now().UnixNano() > exp {
		fc.cache.Del([]byte(key))
		return nil, ErrCacheMiss
	}
	return raw[8:], nil
}

func (fc *FastCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	var exp int64
	if expiration > 0 {
		exp = fc.now().Add(expiration).UnixNano()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(exp))
	copy(buf[8:], value)
	fc.cache.Set([]byte(key), buf)
	return nil
}

func (fc *FastCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		fc.cache.Del([]byte(key))
	}
	return nil
}

// Reset drops every entry.
func (fc *FastCache) Reset() {
	fc.cache.Reset()
}
