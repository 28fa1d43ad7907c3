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
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(paramsCmd)
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Dump the reader's parameter blocks",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		ctx := context.Background()
		r, _, err := openReader(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Block", "Field", "Value"})

		if p, err := r.GetWorkingParams(ctx); err != nil {
			log.Errorf("working params: %v", err)
		} else {
			table.Append([]string{"working", "read_duration", fmt.Sprintf("%d", p.ReadDuration)})
			table.Append([]string{"working", "read_interval", fmt.Sprintf("%d", p.ReadInterval)})
			table.Append([]string{"working", "work_mode", fmt.Sprintf("%d", p.WorkMode)})
			table.Append([]string{"working", "tag_upload_flag", fmt.Sprintf("0x%04X", p.TagUploadFlag)})
			table.Append([]string{"working", "wiegand_protocol", fmt.Sprintf("%d", p.WiegandProtocol)})
		}
		if p, err := r.GetTransportParams(ctx); err != nil {
			log.Errorf("transport params: %v", err)
		} else {
			table.Append([]string{"transport", "type", fmt.Sprintf("%d", p.TransportType)})
			table.Append([]string{"transport", "uart_baud", fmt.Sprintf("%d", p.UartBaudRate)})
			table.Append([]string{"transport", "dhcp", fmt.Sprintf("%d", p.DHCPFlag)})
			table.Append([]string{"transport", "ip", p.IPAddr.String()})
			table.Append([]string{"transport", "local_port", fmt.Sprintf("%d", p.LocalPort)})
			table.Append([]string{"transport", "heartbeat", fmt.Sprintf("%ds", p.HeartbeatInterval)})
		}
		if p, err := r.GetExtParams(ctx); err != nil {
			log.Errorf("ext params: %v", err)
		} else {
			table.Append([]string{"ext", "relay_mode", fmt.Sprintf("%d", p.RelayMode)})
			table.Append([]string{"ext", "relay_time", fmt.Sprintf("%ds", p.RelayTime)})
			table.Append([]string{"ext", "verify_flag", fmt.Sprintf("%d", p.VerifyFlag)})
		}
		if p, err := r.GetAdvanceParams(ctx); err != nil {
			log.Errorf("advance params: %v", err)
		} else {
			table.Append([]string{"advance", "region", fmt.Sprintf("%d", p.Region)})
			table.Append([]string{"advance", "spectrum", fmt.Sprintf("%d-%d kHz", p.SpectrumStart, p.SpectrumEnd)})
			table.Append([]string{"advance", "session", fmt.Sprintf("%d", p.InventorySession)})
			table.Append([]string{"advance", "write_power", fmt.Sprintf("%d dBm", p.WritePower)})
		}
		table.Render()
	},
}
