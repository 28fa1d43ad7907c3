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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(rebootCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Query reader software version and device type",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		info, err := r.GetVersion(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("software version: %s\n", info.SoftwareVersion)
		fmt.Printf("device type:      %d\n", info.DeviceType)
	},
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the reader",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
		if err := r.Reboot(ctx); err != nil {
			log.Fatal(err)
		}
		fmt.Println("reader rebooting")
	},
}
