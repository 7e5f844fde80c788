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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/equiroute/internal/engine/bootstrap"
	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/config"
	"github.com/go-arcade/equiroute/internal/engine/router"
	"github.com/go-arcade/equiroute/internal/engine/service"
	"github.com/go-arcade/equiroute/internal/pkg/authority"
	"github.com/go-arcade/equiroute/internal/pkg/storage"
	"github.com/go-arcade/equiroute/internal/pkg/vehicleregistry"
	"github.com/go-arcade/equiroute/pkg/cache"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		log.ProviderSet,
		cache.ProviderSet,
		metrics.ProviderSet,
		storage.ProviderSet,
		authority.ProviderSet,
		vehicleregistry.ProviderSet,
		compliance.ProviderSet,
		service.ProviderSet,
		router.ProviderSet,
		bootstrap.ProviderSet,
	))
}
