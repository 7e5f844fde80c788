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
	"context"
	"fmt"

	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/repo/memory"
	"github.com/go-arcade/equiroute/pkg/database"
	"github.com/go-arcade/equiroute/pkg/log"
)

// ProvideRepositories opens the configured backend. Memory needs no
// cleanup; MySQL closes its pool.
func ProvideRepositories(conf database.Database) (*repo.Repositories, func(), error) {
	conf.SetDefaults()
	switch conf.Type {
	case database.TypeMemory:
		log.Warn("using in-memory repositories, data is lost on restart")
		return memory.NewRepositories(), func() {}, nil
	case database.TypeMySQL:
		db, err := database.NewDatabase(conf)
		if err != nil {
			return nil, nil, err
		}
		if conf.AutoMigrate {
			if err := repo.Migrate(context.Background(), db); err != nil {
				return nil, nil, fmt.Errorf("auto migrate: %w", err)
			}
		}
		cleanup := func() {
			sqlDB, err := db.Database().DB()
			if err != nil {
				return
			}
			if err := sqlDB.Close(); err != nil {
				log.Errorw("close database failed", "error", err)
			}
		}
		return repo.NewRepositories(db), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", conf.Type)
	}
}
