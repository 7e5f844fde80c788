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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCache_GetSetDel(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)

	_, err := fc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, fc.Set(ctx, "plate:AB12345", []byte(`{"make":"Scania"}`), time.Hour))
	val, err := fc.Get(ctx, "plate:AB12345")
	require.NoError(t, err)
	assert.Equal(t, `{"make":"Scania"}`, string(val))

	require.NoError(t, fc.Del(ctx, "plate:AB12345", "never-set"))
	_, err = fc.Get(ctx, "plate:AB12345")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFastCache_Expiration(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	require.NoError(t, fc.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, fc.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(2 * time.Minute)
	_, err := fc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	val, err := fc.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", string(val))
}

func TestHybridCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	local := NewFastCache(0)
	remote := NewFastCache(0)
	hc := NewHybridCache(local, remote, 0.5)

	require.NoError(t, remote.Set(ctx, "only-remote", []byte("r"), time.Hour))

	val, err := hc.Get(ctx, "only-remote")
	require.NoError(t, err)
	assert.Equal(t, "r", string(val))

	// populated locally on the way back
	val, err = local.Get(ctx, "only-remote")
	require.NoError(t, err)
	assert.Equal(t, "r", string(val))

	require.NoError(t, hc.Set(ctx, "both", []byte("b"), time.Hour))
	_, err = remote.Get(ctx, "both")
	assert.NoError(t, err)

	require.NoError(t, hc.Del(ctx, "both"))
	_, err = hc.Get(ctx, "both")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestProvideCache_LocalMode(t *testing.T) {
	c, err := ProvideCache(Redis{})
	require.NoError(t, err)
	_, ok := c.(*FastCache)
	assert.True(t, ok)
}
