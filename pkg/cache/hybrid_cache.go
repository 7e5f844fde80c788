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
	"errors"
	"time"

	"github.com/go-arcade/equiroute/pkg/log"
)

// HybridCache reads through a local FastCache in front of a remote ICache.
// Local entries live for LocalTTLRatio of the remote expiration.
type HybridCache struct {
	local         *FastCache
	remote        ICache
	localTTLRatio float64
	localDefault  time.Duration
}

func NewHybridCache(local *FastCache, remote ICache, localTTLRatio float64) *HybridCache {
	if localTTLRatio <= 0 || localTTLRatio > 1 {
		localTTLRatio = 0.8
	}
	return &HybridCache{
		local:         local,
		remote:        remote,
		localTTLRatio: localTTLRatio,
		localDefault:  time.Minute,
	}
}

func (hc *HybridCache) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := hc.local.Get(ctx, key); err == nil {
		log.Debugw("hybrid cache hit (local)", "key", key)
		return val, nil
	}

	val, err := hc.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Warnw("remote cache get failed", "key", key, "error", err)
		}
		return nil, err
	}
	log.Debugw("hybrid cache hit (remote)", "key", key)
	_ = hc.local.Set(ctx, key, val, hc.localDefault)
	return val, nil
}

func (hc *HybridCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	localTTL := hc.localDefault
	if expiration > 0 {
		localTTL = time.Duration(float64(expiration) * hc.localTTLRatio)
	}
	_ = hc.local.Set(ctx, key, value, localTTL)
	return hc.remote.Set(ctx, key, value, expiration)
}

func (hc *HybridCache) Del(ctx context.Context, keys ...string) error {
	_ = hc.local.Del(ctx, keys...)
	return hc.remote.Del(ctx, keys...)
}
