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

package traces

import "time"

type Config struct {
	Timeout    time.Duration `mapstructure:"timeout"`    // bound on one authority call
	StaleAfter time.Duration `mapstructure:"staleAfter"` // mid-phase registrations older than this are reset
	SweepSpec  string        `mapstructure:"sweepSpec"`
}

func (c *Config) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	if c.StaleAfter < 2*c.Timeout {
		c.StaleAfter = 2 * c.Timeout
	}
	if c.SweepSpec == "" {
		c.SweepSpec = "@every 1m"
	}
}
