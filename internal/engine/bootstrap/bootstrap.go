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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/config"
	"github.com/go-arcade/equiroute/internal/engine/router"
	"github.com/go-arcade/equiroute/internal/engine/service"
	"github.com/go-arcade/equiroute/pkg/cron"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/go-arcade/equiroute/pkg/safe"
	"github.com/go-arcade/equiroute/pkg/trace"
	"github.com/gofiber/fiber/v2"
)

const sweepJob = "traces-sweep"

type App struct {
	HttpApp   *fiber.App
	Metrics   *metrics.Server
	Scheduler *cron.Scheduler
	Services  *service.Services
	Logger    *log.Logger
	AppConf   *config.AppConfig
}

// InitAppFunc builds the application from a config file path.
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	rt *router.Router,
	services *service.Services,
	metricsServer *metrics.Server,
	recorder *metrics.CronMetricsRecorder,
	logger *log.Logger,
	appConf *config.AppConfig,
) (*App, func(), error) {
	traceShutdown, err := trace.Init(appConf.Trace)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	scheduler := cron.New(recorder, time.Minute)
	if err := scheduler.AddJob(sweepJob, appConf.Traces.SweepSpec, services.Traces.Sweep); err != nil {
		_ = traceShutdown(context.Background())
		return nil, nil, err
	}

	app := &App{
		HttpApp:   rt.Router(),
		Metrics:   metricsServer,
		Scheduler: scheduler,
		Services:  services,
		Logger:    logger,
		AppConf:   appConf,
	}

	cleanup := func() {
		scheduler.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceShutdown(ctx); err != nil {
			log.Errorw("trace provider shutdown failed", "error", err)
		}
	}
	return app, cleanup, nil
}

// Bootstrap builds the App through initApp.
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), error) {
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

// Run starts the listeners and the scheduler, then blocks until a
// termination signal arrives and shuts everything down in reverse order.
func Run(app *App, cleanup func()) {
	appConf := app.AppConf

	app.Scheduler.Start()
	log.Infow("scheduler started", "job", sweepJob, "spec", appConf.Traces.SweepSpec)

	if err := app.Metrics.Start(); err != nil {
		log.Errorw("metrics server failed", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	safe.Go("http-listener", func() {
		addr := fmt.Sprintf("%s:%d", appConf.Http.Host, appConf.Http.Port)
		log.Infow("HTTP listener started", "address", addr)
		var err error
		if tls := appConf.Http.TLS; tls.CertFile != "" && tls.KeyFile != "" {
			err = app.HttpApp.ListenTLS(addr, tls.CertFile, tls.KeyFile)
		} else {
			err = app.HttpApp.Listen(addr)
		}
		if err != nil {
			log.Errorw("HTTP listener failed", "address", addr, "error", err)
		}
	})

	sig := <-quit
	log.Infow("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(appConf.Http.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Info("HTTP server shut down gracefully")
	}
	if err := app.Metrics.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("metrics server shutdown error", "error", err)
	}

	cleanup()
	log.Info("server shutdown complete")
	_ = log.Sync()
}
