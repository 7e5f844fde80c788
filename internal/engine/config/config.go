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

package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/service/organization"
	"github.com/go-arcade/equiroute/internal/engine/service/traces"
	"github.com/go-arcade/equiroute/internal/pkg/authority"
	"github.com/go-arcade/equiroute/internal/pkg/storage"
	"github.com/go-arcade/equiroute/internal/pkg/vehicleregistry"
	"github.com/go-arcade/equiroute/pkg/cache"
	"github.com/go-arcade/equiroute/pkg/database"
	"github.com/go-arcade/equiroute/pkg/http"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/go-arcade/equiroute/pkg/trace"
	"github.com/spf13/viper"
)

const envPrefix = "EQUIROUTE"

type AppConfig struct {
	Log             log.Conf
	Http            http.Http
	Database        database.Database
	Redis           cache.Redis
	Storage         storage.Storage
	Metrics         metrics.MetricsConfig
	Trace           trace.TraceConfig
	Authority       authority.Config
	VehicleRegistry vehicleregistry.Config
	Organization    organization.Config
	Compliance      compliance.Config
	Traces          traces.Config
}

// SetDefaults fills every section that was left empty.
func (c *AppConfig) SetDefaults() {
	if c.Log.Output == "" {
		c.Log = *log.SetDefaults()
	}
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Redis.SetDefaults()
	c.Storage.SetDefaults()
	c.Metrics.SetDefaults()
	c.Trace.SetDefaults()
	c.Authority.SetDefaults()
	c.VehicleRegistry.SetDefaults()
	c.Organization.SetDefaults()
	c.Traces.SetDefaults()
}

var (
	mu   sync.RWMutex
	cfg  AppConfig
	once sync.Once
)

// NewConf loads the configuration once per process.
func NewConf(confFile string) *AppConfig {
	once.Do(func() {
		loaded, err := LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	c := cfg
	return &c
}

func newViper(confFile string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(confFile)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfigFile reads confFile, applies EQUIROUTE_* env overrides and
// defaults, and watches the file. Reloaded values are only logged; sections
// bound at startup keep their values until restart.
func LoadConfigFile(confFile string) (AppConfig, error) {
	var out AppConfig

	v := newViper(confFile)
	if err := v.ReadInConfig(); err != nil {
		return out, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if err := v.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	out.SetDefaults()

	v.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			log.Errorw("reload configuration failed", "path", e.Name, "error", err)
			return
		}
		next.SetDefaults()
		log.Infow("configuration changed", "path", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()

	log.Infow("config file loaded", "path", confFile)
	return out, nil
}
