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

package permission

import (
	"github.com/go-arcade/equiroute/internal/engine/model"
)

// Scope is the identity a service call runs under: the active context and,
// in organization mode, the actor's membership of that organization.
type Scope struct {
	Active model.ActiveContext
	Member *model.OrganizationMember
}

// PrivateScope is the scope of actorId acting privately.
func PrivateScope(actorId string) Scope {
	return Scope{Active: model.PrivateContext(actorId)}
}

func (s Scope) ActorId() string {
	return s.Active.ActorId
}

// Owner is the owner of records created under this scope.
func (s Scope) Owner() model.Owner {
	return s.Active.Owner()
}

func (s Scope) Can(action model.Action) bool {
	return CanPerform(s.Active, s.Member, action)
}

// Sees reports whether a record owned by o is visible in this scope.
func (s Scope) Sees(o model.Owner) bool {
	return o.OwnedBy(s.Active)
}
