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

package database

import (
	"fmt"
	"time"
)

const (
	TypeMySQL  = "mysql"
	TypeMemory = "memory"

	dataTablePrefix = "t_"
)

// Database is the persistence configuration. Type "memory" keeps every
// record in process and is meant for development and tests.
type Database struct {
	Type         string `mapstructure:"type"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	OutPut       bool   `mapstructure:"output"`
	AutoMigrate  bool   `mapstructure:"autoMigrate"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxLifetime  int    `mapstructure:"maxLifeTime"` // seconds
	MaxIdleTime  int    `mapstructure:"maxIdleTime"` // seconds
}

func (d *Database) SetDefaults() {
	if d.Type == "" {
		d.Type = TypeMemory
	}
	if d.Port == "" {
		d.Port = "3306"
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = 50
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = 10
	}
}

// GetConnMaxLifetime returns ConnMaxLifetime, defaulting to 5 minutes.
func GetConnMaxLifetime(maxLifetime int) time.Duration {
	if maxLifetime > 0 {
		return time.Duration(maxLifetime) * time.Second
	}
	return 300 * time.Second
}

// GetConnMaxIdleTime returns ConnMaxIdleTime, defaulting to 1 minute.
func GetConnMaxIdleTime(maxIdleTime int) time.Duration {
	if maxIdleTime > 0 {
		return time.Duration(maxIdleTime) * time.Second
	}
	return 60 * time.Second
}

// buildMySQLDSN builds a MySQL DSN string from configuration
func buildMySQLDSN(cfg Database) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
}
