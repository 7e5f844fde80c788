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

package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenAndParseToken(t *testing.T) {
	secret := []byte("s3cr3t")

	token, err := GenToken("actor-1", "Anna", "equiroute", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "equiroute", secret)
	require.NoError(t, err)
	assert.Equal(t, "actor-1", claims.ActorId)
	assert.Equal(t, "Anna", claims.DisplayName)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("s3cr3t")
	valid, err := GenToken("actor-1", "", "equiroute", secret, time.Hour)
	require.NoError(t, err)
	expired, err := GenToken("actor-1", "", "equiroute", secret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		issuer  string
		secret  []byte
		wantErr error
	}{
		{"wrong secret", valid, "equiroute", []byte("other"), ErrTokenInvalid},
		{"wrong issuer", valid, "someone-else", secret, ErrTokenInvalid},
		{"garbage", "not-a-token", "equiroute", secret, ErrTokenInvalid},
		{"expired", expired, "equiroute", secret, ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.issuer, tt.secret)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
