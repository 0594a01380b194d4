package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"github.com/awaistahir/smart-boiler/internal/device"
	"github.com/awaistahir/smart-boiler/internal/executor"
	"github.com/awaistahir/smart-boiler/internal/httpapi"
	"github.com/awaistahir/smart-boiler/internal/store"
	"github.com/awaistahir/smart-boiler/internal/weather"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// recurringSyncInterval keeps the rolling occurrence window populated.
const recurringSyncInterval = time.Hour

func main() {
	var port int
	var dbPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "smartboilerd",
		Short: "SmartBoiler daemon: HTTP API, plan execution and recurring sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(debug)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logger.Sync()
			log := logger.Sugar()

			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dbPath = filepath.Join(home, ".smartboiler", "smartboiler.db")
			}

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			cache := weather.NewCache(weather.NewOpenMeteoClient(), log)
			controller := device.NewStubController(log)
			if err := selectFirstDevice(controller, log); err != nil {
				log.Warnw("no switch selected, heating commands will fail until one is", "error", err)
			}
			exec := executor.New(st, cache, controller, log)
			srv := httpapi.NewServer(st, cache, log)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go func() {
				if err := exec.Run(ctx); err != nil && ctx.Err() == nil {
					log.Errorw("executor stopped", "error", err)
				}
			}()
			go runRecurringSync(ctx, st, log)

			addr := fmt.Sprintf(":%d", port)
			log.Infow("smartboilerd starting", "addr", addr, "db", dbPath)

			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Database path")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Verbose logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// selectFirstDevice binds the controller to the first discovered switch so the
// executor has something to command.
func selectFirstDevice(controller device.SwitchController, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	devices, err := controller.DiscoverDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return device.ErrDeviceUnavailable
	}
	if err := controller.SelectDevice(ctx, devices[0].ID); err != nil {
		return err
	}
	log.Infow("switch selected", "device", devices[0].ID, "name", devices[0].Name)
	return nil
}

// runRecurringSync materializes recurring occurrences once at startup and
// then every hour, so the rolling window stays populated without user action.
func runRecurringSync(ctx context.Context, st *store.Store, log *zap.SugaredLogger) {
	syncOnce := func() {
		templates, err := st.GetRecurringSchedules()
		if err != nil {
			log.Errorw("loading recurring templates failed", "error", err)
			return
		}
		created, err := boiler.SyncRecurringSchedules(st, templates, time.Now(), boiler.DefaultSyncDaysAhead)
		if err != nil {
			log.Errorw("recurring sync failed", "error", err)
			return
		}
		if len(created) > 0 {
			log.Infow("recurring sync", "created", len(created))
		}
	}

	syncOnce()
	ticker := time.NewTicker(recurringSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncOnce()
		}
	}
}
