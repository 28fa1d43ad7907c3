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
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

func init() {
	RootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports that may host a reader",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			log.Fatal(err)
		}
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
			return
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Port", "USB", "VID:PID", "Serial", "Product"})
		for _, p := range ports {
			usb := ""
			vidpid := ""
			if p.IsUSB {
				usb = "yes"
				vidpid = fmt.Sprintf("%s:%s", p.VID, p.PID)
			}
			table.Append([]string{p.Name, usb, vidpid, p.SerialNumber, p.Product})
		}
		table.Render()
	},
}
