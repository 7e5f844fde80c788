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

package bootstrap

import (
	"testing"

	"github.com/go-arcade/equiroute/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideRepositories(t *testing.T) {
	repos, cleanup, err := ProvideRepositories(database.Database{})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, repos.Actor)
	assert.NotNil(t, repos.Registration)

	_, _, err = ProvideRepositories(database.Database{Type: "postgres"})
	assert.ErrorContains(t, err, "unsupported database type")
}
