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

package id

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// JoinCodeLength is the length of an organization join code.
const JoinCodeLength = 6

// ErrInvalidJoinCode is returned for codes that are not 6 alphanumerics.
var ErrInvalidJoinCode = errors.New("join code must be 6 alphanumeric characters")

// GetUlid returns a new ULID string.
func GetUlid() string {
	return ulid.Make().String()
}

// JoinCode returns a fresh 6 character uppercase alphanumeric code taken
// from the random component of a ULID.
func JoinCode() string {
	u := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	// chars 0-9 encode the timestamp, 10-25 the entropy.
	return u.String()[10 : 10+JoinCodeLength]
}

// NormalizeJoinCode upper-cases and validates a user supplied join code.
func NormalizeJoinCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != JoinCodeLength {
		return "", ErrInvalidJoinCode
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", ErrInvalidJoinCode
		}
	}
	return code, nil
}
