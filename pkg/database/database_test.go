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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestDefaults(t *testing.T) {
	d := Database{}
	d.SetDefaults()
	assert.Equal(t, TypeMemory, d.Type)
	assert.Equal(t, "3306", d.Port)
	assert.Equal(t, 300*time.Second, GetConnMaxLifetime(0))
	assert.Equal(t, 10*time.Second, GetConnMaxIdleTime(10))
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn := buildMySQLDSN(Database{User: "u", Password: "p", Host: "db", Port: "3307", DBName: "equiroute"})
	assert.Equal(t, "u:p@tcp(db:3307)/equiroute?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true", dsn)
}

func TestNewDatabase_RejectsUnknownType(t *testing.T) {
	_, err := NewDatabase(Database{Type: "oracle"})
	assert.Error(t, err)
}

func TestGormLoggerAdapter_LogModeClones(t *testing.T) {
	base := NewGormLoggerAdapter(logger.Config{}, logger.Info)
	silent := base.LogMode(logger.Silent)

	assert.Equal(t, logger.Info, base.Level)
	assert.NotPanics(t, func() {
		silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
		base.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	})
}
