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
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideHttpConfig,
	ProvideLogConfig,
	ProvideDatabaseConfig,
	ProvideRedisConfig,
	ProvideStorageConfig,
	ProvideMetricsConfig,
	ProvideTraceConfig,
	ProvideAuthorityConfig,
	ProvideVehicleRegistryConfig,
	ProvideOrganizationConfig,
	ProvideComplianceConfig,
	ProvideTracesConfig,
)

func ProvideConf(configPath string) *AppConfig {
	return NewConf(configPath)
}

func ProvideHttpConfig(appConf *AppConfig) *http.Http {
	return &appConf.Http
}

func ProvideLogConfig(appConf *AppConfig) *log.Conf {
	return &appConf.Log
}

func ProvideDatabaseConfig(appConf *AppConfig) database.Database {
	return appConf.Database
}

func ProvideRedisConfig(appConf *AppConfig) cache.Redis {
	return appConf.Redis
}

func ProvideStorageConfig(appConf *AppConfig) storage.Storage {
	return appConf.Storage
}

func ProvideMetricsConfig(appConf *AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

func ProvideTraceConfig(appConf *AppConfig) trace.TraceConfig {
	return appConf.Trace
}

func ProvideAuthorityConfig(appConf *AppConfig) authority.Config {
	return appConf.Authority
}

func ProvideVehicleRegistryConfig(appConf *AppConfig) vehicleregistry.Config {
	return appConf.VehicleRegistry
}

func ProvideOrganizationConfig(appConf *AppConfig) organization.Config {
	return appConf.Organization
}

func ProvideComplianceConfig(appConf *AppConfig) compliance.Config {
	return appConf.Compliance
}

func ProvideTracesConfig(appConf *AppConfig) traces.Config {
	return appConf.Traces
}
