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

package main

import (
	"context"
	"fmt"

	"github.com/go-arcade/equiroute/internal/engine/bootstrap"
	"github.com/go-arcade/equiroute/internal/engine/config"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/pkg/database"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/version"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "equiroute",
	Short: "equiroute horse transport compliance server",
	RunE:  serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the background scheduler",
	RunE:  serve,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the MySQL schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConf := config.NewConf(configFile)
		if err := log.Init(&appConf.Log); err != nil {
			return err
		}
		if appConf.Database.Type != database.TypeMySQL {
			return fmt.Errorf("migrate needs database.type = %q, got %q", database.TypeMySQL, appConf.Database.Type)
		}
		db, err := database.NewDatabase(appConf.Database)
		if err != nil {
			return err
		}
		if err := repo.Migrate(context.Background(), db); err != nil {
			return err
		}
		log.Infow("schema migrated", "database", appConf.Database.DBName)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.toml", "config file path, e.g. -c ./conf.d/config.toml")
	rootCmd.AddCommand(serveCmd, migrateCmd, version.VersionCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
	if err != nil {
		return err
	}
	bootstrap.Run(app, cleanup)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
