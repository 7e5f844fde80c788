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

// Package vehicleregistry looks vehicles up in the national motor registry.
package vehicleregistry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/equiroute/pkg/cache"
	httpx "github.com/go-arcade/equiroute/pkg/http"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/retry"
	"github.com/go-resty/resty/v2"
)

var (
	ErrNotFound = errors.New("vehicle not found in registry")
	// ErrDisabled is returned when no registry is configured.
	ErrDisabled = errors.New("vehicle registry is not configured")
)

const cacheKeyPrefix = "equiroute:vehicle-registry:"

type Config struct {
	BaseURL  string        `mapstructure:"baseUrl"`
	APIKey   string        `mapstructure:"apiKey"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cacheTtl"`
	// Attempts bounds calls per lookup; 5xx and transport errors are retried.
	Attempts int `mapstructure:"attempts"`
}

func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 24 * time.Hour
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
}

// VehicleInfo is the registry record of a plate.
type VehicleInfo struct {
	Plate             string `json:"plate"`
	Make              string `json:"make"`
	Model             string `json:"model"`
	Vin               string `json:"vin"`
	FirstRegistration string `json:"firstRegistration,omitempty"`
	TotalWeightKg     int    `json:"totalWeightKg,omitempty"`
}

// Lookup resolves plates to registry records.
type Lookup interface {
	Lookup(ctx context.Context, plate string) (*VehicleInfo, error)
}

// Client queries the registry, caching hits in front of it.
type Client struct {
	rest     *resty.Client
	cache    cache.ICache
	ttl      time.Duration
	attempts int
}

func NewClient(conf Config, c cache.ICache) *Client {
	conf.SetDefaults()
	rest := httpx.NewClient(httpx.ClientConfig{BaseURL: conf.BaseURL, APIKey: conf.APIKey, Timeout: conf.Timeout}).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	return &Client{rest: rest, cache: c, ttl: conf.CacheTTL, attempts: conf.Attempts}
}

// NormalizePlate upper-cases a plate and strips spaces and dashes.
func NormalizePlate(plate string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(plate))
}

func (c *Client) Lookup(ctx context.Context, plate string) (*VehicleInfo, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, ErrNotFound
	}
	key := cacheKeyPrefix + plate
	if c.cache != nil {
		if b, err := c.cache.Get(ctx, key); err == nil {
			var info VehicleInfo
			if err := sonic.Unmarshal(b, &info); err == nil {
				return &info, nil
			}
			log.WithContext(ctx).Warnw("discarding unreadable registry cache entry", "plate", plate)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithContext(ctx).Warnw("registry cache read failed", "plate", plate, "error", err)
		}
	}

	var info VehicleInfo
	err := retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.rest.R().
			SetContext(ctx).
			SetPathParam("plate", plate).
			SetResult(&info).
			Get("/vehicles/{plate}")
		switch {
		case err != nil:
			return fmt.Errorf("lookup %s: %w", plate, err)
		case resp.StatusCode() == http.StatusNotFound:
			return retry.Permanent(ErrNotFound)
		case resp.StatusCode() >= http.StatusInternalServerError:
			return fmt.Errorf("lookup %s: %s", plate, resp.Status())
		case resp.IsError():
			return retry.Permanent(fmt.Errorf("lookup %s: %s", plate, resp.Status()))
		}
		return nil
	}, retry.WithMaxAttempts(c.attempts), retry.WithBackoff(retry.Exponential(200*time.Millisecond, 2*time.Second)), retry.WithJitter())
	if err != nil {
		return nil, err
	}
	if info.Plate == "" {
		info.Plate = plate
	}

	if c.cache != nil {
		if b, err := sonic.Marshal(&info); err == nil {
			if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
				log.WithContext(ctx).Warnw("registry cache write failed", "plate", plate, "error", err)
			}
		}
	}
	return &info, nil
}

type disabled struct{}

func (disabled) Lookup(context.Context, string) (*VehicleInfo, error) {
	return nil, ErrDisabled
}

// NewLookup returns a client, or a lookup that always fails with
// ErrDisabled when no base url is configured.
func NewLookup(conf Config, c cache.ICache) Lookup {
	if conf.BaseURL == "" {
		return disabled{}
	}
	return NewClient(conf, c)
}
