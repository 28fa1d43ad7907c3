/*
Copyright (c) the uhf-rfid-sdk authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aaamil13/uhf-rfid-sdk/cph"
	"github.com/aaamil13/uhf-rfid-sdk/reader"
)

var (
	inventoryDurationFlag   time.Duration
	inventoryMonitoringPort int
)

func init() {
	inventoryCmd.Flags().DurationVarP(&inventoryDurationFlag, "duration", "d", 0, "stop after this long; 0 means until interrupted")
	inventoryCmd.Flags().IntVarP(&inventoryMonitoringPort, "monitoring-port", "m", 0, "serve Prometheus metrics on this port; 0 disables")
	RootCmd.AddCommand(inventoryCmd)
}

func flattenKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '.' || c == '-' || c == ' ' {
			c = '_'
		}
		out[i] = c
	}
	return string(out)
}

func metricsHandler(counters *reader.Counters) http.Handler {
	registry := prometheus.NewRegistry()
	for _, key := range []string{
		reader.StatsRxBytes, reader.StatsRxFrames, reader.StatsRxFrameErrors,
		reader.StatsRxResponses, reader.StatsRxNotifications,
		reader.StatsRxUnexpected, reader.StatsTxCommands, reader.StatsTimeouts,
	} {
		key := key
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: flattenKey(key),
			Help: key,
		}, func() float64 {
			return float64(counters.Get(key))
		}))
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Run continuous inventory and print observed tags",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if inventoryDurationFlag > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, inventoryDurationFlag)
			defer cancel()
		}

		r, counters, err := openReader(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()

		onTag := func(tag cph.TagReadData) error {
			line := fmt.Sprintf("EPC=%s", tag.EPC)
			if tag.RSSI != nil {
				line += fmt.Sprintf(" RSSI=%d", *tag.RSSI)
			}
			if tag.Antenna != nil {
				line += fmt.Sprintf(" ant=%d", *tag.Antenna)
			}
			if tag.TID != "" {
				line += fmt.Sprintf(" TID=%s", tag.TID)
			}
			fmt.Println(color.GreenString(line))
			return nil
		}
		r.RegisterTagCallback(onTag)
		defer r.UnregisterTagCallback(onTag)

		if err := r.StartInventory(context.Background()); err != nil {
			log.Fatal(err)
		}

		eg, ctx := errgroup.WithContext(ctx)
		if inventoryMonitoringPort > 0 {
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", inventoryMonitoringPort),
				Handler: metricsHandler(counters),
			}
			eg.Go(func() error {
				<-ctx.Done()
				return server.Close()
			})
			eg.Go(func() error {
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		}
		eg.Go(func() error {
			<-ctx.Done()
			return nil
		})
		if err := eg.Wait(); err != nil {
			log.Errorf("inventory monitor: %v", err)
		}

		if err := r.StopInventory(context.Background()); err != nil {
			log.Errorf("stopping inventory: %v", err)
		}
		snapshot := counters.Snapshot()
		log.Infof("frames=%d notifications=%d timeouts=%d",
			snapshot[reader.StatsRxFrames], snapshot[reader.StatsRxNotifications], snapshot[reader.StatsTimeouts])
	},
}
