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

package service

import (
	"github.com/go-arcade/equiroute/internal/engine/service/actor"
	"github.com/go-arcade/equiroute/internal/engine/service/certificate"
	"github.com/go-arcade/equiroute/internal/engine/service/fleet"
	"github.com/go-arcade/equiroute/internal/engine/service/organization"
	"github.com/go-arcade/equiroute/internal/engine/service/traces"
	"github.com/go-arcade/equiroute/internal/engine/service/transport"
	"github.com/go-arcade/equiroute/internal/engine/service/workspace"
)

// Services groups every service the HTTP layer and the scheduler use.
type Services struct {
	Actor        *actor.Service
	Workspace    *workspace.Manager
	Organization *organization.Service
	Fleet        *fleet.Service
	Certificate  *certificate.Service
	Transport    *transport.Service
	Traces       *traces.Service
}

func NewServices(
	actorSvc *actor.Service,
	workspaceMgr *workspace.Manager,
	orgSvc *organization.Service,
	fleetSvc *fleet.Service,
	certSvc *certificate.Service,
	transportSvc *transport.Service,
	tracesSvc *traces.Service,
) *Services {
	return &Services{
		Actor:        actorSvc,
		Workspace:    workspaceMgr,
		Organization: orgSvc,
		Fleet:        fleetSvc,
		Certificate:  certSvc,
		Transport:    transportSvc,
		Traces:       tracesSvc,
	}
}
