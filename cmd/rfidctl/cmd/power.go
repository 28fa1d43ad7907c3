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
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aaamil13/uhf-rfid-sdk/cph"
)

func init() {
	powerCmd.AddCommand(powerGetCmd)
	powerCmd.AddCommand(powerSetCmd)
	buzzerCmd.AddCommand(buzzerOnCmd)
	buzzerCmd.AddCommand(buzzerOffCmd)
	RootCmd.AddCommand(powerCmd)
	RootCmd.AddCommand(buzzerCmd)
	RootCmd.AddCommand(relayCmd)
	RootCmd.AddCommand(rtcCmd)
	rtcCmd.AddCommand(rtcGetCmd)
	rtcCmd.AddCommand(rtcSetCmd)
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Query or set RF output power",
}

var powerGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Query RF output power in dBm",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		dbm, err := r.GetPower(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d dBm\n", dbm)
	},
}

var powerSetCmd = &cobra.Command{
	Use:   "set [dBm]",
	Short: "Set RF output power in dBm (0..30)",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		dbm, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("invalid power %q: %v", args[0], err)
		}
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		if err := r.SetPower(ctx, dbm); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("power set to %d dBm\n", dbm)
	},
}

var buzzerCmd = &cobra.Command{
	Use:   "buzzer",
	Short: "Switch the buzzer on or off",
}

func runBuzzer(on bool) {
	ConfigureVerbosity()
	ctx := context.Background()
	r, _, err := openReader(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()
	if err := r.SetBuzzer(ctx, on); err != nil {
		log.Fatal(err)
	}
}

var buzzerOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Switch the buzzer on",
	Run:   func(_ *cobra.Command, _ []string) { runBuzzer(true) },
}

var buzzerOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Switch the buzzer off",
	Run:   func(_ *cobra.Command, _ []string) { runBuzzer(false) },
}

var rtcCmd = &cobra.Command{
	Use:   "rtc",
	Short: "Query or set the reader real-time clock",
}

var rtcGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Query the reader clock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		t, err := r.GetRTC(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(t.Format(time.DateTime))
	},
}

var rtcSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the reader clock to the host clock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		now := time.Now()
		if err := r.SetRTC(ctx, now); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("reader clock set to %s\n", now.Format(time.DateTime))
	},
}

var relayCmd = &cobra.Command{
	Use:       "relay [off|on|pulse]",
	Short:     "Drive the relay output",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"off", "on", "pulse"},
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		states := map[string]cph.RelayState{
			"off":   cph.RelayOff,
			"on":    cph.RelayOn,
			"pulse": cph.RelayPulse,
		}
		state, ok := states[args[0]]
		if !ok {
			log.Fatalf("invalid relay state %q", args[0])
		}
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		if err := r.RelayOperation(ctx, state); err != nil {
			log.Fatal(err)
		}
	},
}
