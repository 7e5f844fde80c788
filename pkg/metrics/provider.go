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

package metrics

import (
	"github.com/google/wire"
)

// ProviderSet wires the metrics server and its collectors.
var ProviderSet = wire.NewSet(
	NewMetricsServer,
	ProvideDomain,
	ProvideCronRecorder,
)

// NewMetricsServer creates a new metrics server from config
func NewMetricsServer(config MetricsConfig) *Server {
	config.SetDefaults()
	return NewServer(config)
}

func ProvideDomain(server *Server) *Domain {
	return NewDomain(server.GetRegistry())
}

func ProvideCronRecorder(server *Server) *CronMetricsRecorder {
	return NewCronMetricsRecorder(server.GetRegistry())
}
