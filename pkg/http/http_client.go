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

package http

import (
	"time"

	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-resty/resty/v2"
)

// ClientConfig configures an outbound REST client.
type ClientConfig struct {
	BaseURL string        `mapstructure:"baseUrl"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c *ClientConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// NewClient returns a resty client preconfigured with base url, timeout,
// bearer api key and JSON content negotiation. Retries stay disabled, callers
// decide whether to try again.
func NewClient(conf ClientConfig) *resty.Client {
	conf.SetDefaults()
	c := resty.New().
		SetBaseURL(conf.BaseURL).
		SetTimeout(conf.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if conf.APIKey != "" {
		c.SetAuthToken(conf.APIKey)
	}
	c.OnError(func(req *resty.Request, err error) {
		log.Warnw("outbound request failed", "method", req.Method, "url", req.URL, "error", err)
	})
	return c
}
