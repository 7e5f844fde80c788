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

// Package authority talks to the TRACES registration authority.
package authority

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/equiroute/pkg/http"
	"github.com/go-arcade/equiroute/pkg/id"
	"github.com/go-resty/resty/v2"
)

// ErrEmptyReference is returned when the authority accepts a movement
// without handing out a reference number.
var ErrEmptyReference = errors.New("authority returned no reference number")

type Config struct {
	// Sandbox issues local reference numbers instead of calling BaseURL.
	Sandbox bool          `mapstructure:"sandbox"`
	BaseURL string        `mapstructure:"baseUrl"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.Sandbox = true
	}
	if c.Timeout == 0 {
		c.Timeout = 20 * time.Second
	}
}

// Movement is what gets registered for a transport.
type Movement struct {
	TransportId   string    `json:"transportId"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Countries     []string  `json:"countries"`
	DepartureAt   time.Time `json:"departureAt"`
	VehicleId     string    `json:"vehicleId"`
	HorseIds      []string  `json:"horseIds"`
	DistanceKm    float64   `json:"distanceKm"`
	DurationHours float64   `json:"durationHours"`
}

type Receipt struct {
	ReferenceNumber string `json:"referenceNumber"`
}

// Registrar registers movements with the authority.
type Registrar interface {
	Register(ctx context.Context, m Movement) (*Receipt, error)
}

// Client is the HTTP registrar.
type Client struct {
	rest *resty.Client
}

func NewClient(conf Config) *Client {
	rest := http.NewClient(http.ClientConfig{BaseURL: conf.BaseURL, APIKey: conf.APIKey, Timeout: conf.Timeout}).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	return &Client{rest: rest}
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) Register(ctx context.Context, m Movement) (*Receipt, error) {
	var (
		receipt Receipt
		failure errorBody
	)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(m).
		SetResult(&receipt).
		SetError(&failure).
		Post("/movements")
	if err != nil {
		return nil, fmt.Errorf("register movement: %w", err)
	}
	if resp.IsError() {
		if failure.Message != "" {
			return nil, fmt.Errorf("register movement: %s: %s", resp.Status(), failure.Message)
		}
		return nil, fmt.Errorf("register movement: %s", resp.Status())
	}
	if strings.TrimSpace(receipt.ReferenceNumber) == "" {
		return nil, ErrEmptyReference
	}
	return &receipt, nil
}

// Sandbox hands out reference numbers without leaving the process.
type Sandbox struct {
	now func() time.Time
}

func NewSandbox() *Sandbox {
	return &Sandbox{now: time.Now}
}

func (s *Sandbox) Register(ctx context.Context, m Movement) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	origin := "XX"
	if len(m.Countries) > 0 {
		origin = strings.ToUpper(m.Countries[0])
	}
	return &Receipt{ReferenceNumber: fmt.Sprintf("INTRA.%s.%d.%s", origin, s.now().Year(), id.GetUlid()[16:])}, nil
}

// NewRegistrar returns the sandbox or the HTTP client, depending on conf.
func NewRegistrar(conf Config) Registrar {
	conf.SetDefaults()
	if conf.Sandbox {
		return NewSandbox()
	}
	return NewClient(conf)
}
