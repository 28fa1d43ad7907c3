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
	"net"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	yaml "gopkg.in/yaml.v2"

	"github.com/aaamil13/uhf-rfid-sdk/reader"
	"github.com/aaamil13/uhf-rfid-sdk/transport"
)

// RootCmd is the main entry point, exported so rfidctl can be extended
// without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "rfidctl",
	Short: "Control CPH UHF RFID readers",
}

// connection flags
var (
	rootVerboseFlag bool
	rootTCPFlag     string
	rootUDPFlag     string
	rootSerialFlag  string
	rootBaudFlag    int
	rootAddressFlag uint16
	rootTimeoutFlag time.Duration
	rootConfigFlag  string
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&rootTCPFlag, "tcp", "t", "", "reader TCP endpoint, host:port")
	RootCmd.PersistentFlags().StringVarP(&rootUDPFlag, "udp", "u", "", "reader UDP endpoint, host:port")
	RootCmd.PersistentFlags().StringVarP(&rootSerialFlag, "serial", "s", "", "reader serial device, e.g. /dev/ttyUSB0")
	RootCmd.PersistentFlags().IntVarP(&rootBaudFlag, "baud", "b", 115200, "serial baud rate")
	RootCmd.PersistentFlags().Uint16VarP(&rootAddressFlag, "address", "a", 0, "device address")
	RootCmd.PersistentFlags().DurationVar(&rootTimeoutFlag, "timeout", reader.DefaultResponseTimeout, "per-command response timeout")
	RootCmd.PersistentFlags().StringVarP(&rootConfigFlag, "config", "c", "", "YAML connection profile")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to
// be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

// Profile is the YAML connection profile accepted by --config.
type Profile struct {
	TCP     string        `yaml:"tcp"`
	UDP     string        `yaml:"udp"`
	Serial  string        `yaml:"serial"`
	Baud    int           `yaml:"baud"`
	Address uint16        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate Profile is sane
func (p *Profile) Validate() error {
	set := 0
	for _, endpoint := range []string{p.TCP, p.UDP, p.Serial} {
		if endpoint != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of tcp, udp or serial must be set")
	}
	return nil
}

func loadProfile() (*Profile, error) {
	p := &Profile{
		TCP:     rootTCPFlag,
		UDP:     rootUDPFlag,
		Serial:  rootSerialFlag,
		Baud:    rootBaudFlag,
		Address: rootAddressFlag,
		Timeout: rootTimeoutFlag,
	}
	if rootConfigFlag != "" {
		raw, err := os.ReadFile(rootConfigFlag)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if p.Baud == 0 {
		p.Baud = 115200
	}
	if p.Timeout == 0 {
		p.Timeout = reader.DefaultResponseTimeout
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) transport() (transport.Transport, error) {
	switch {
	case p.TCP != "":
		host, port, err := splitHostPort(p.TCP)
		if err != nil {
			return nil, err
		}
		return transport.NewTCP(host, port), nil
	case p.UDP != "":
		host, port, err := splitHostPort(p.UDP)
		if err != nil {
			return nil, err
		}
		return transport.NewUDP(host, port), nil
	default:
		return transport.NewSerial(p.Serial, &serial.Mode{
			BaudRate: p.Baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}), nil
	}
}

func splitHostPort(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return "", 0, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", endpoint, err)
	}
	return host, port, nil
}

// openReader connects to the reader described by the flags/profile. The
// returned stats server collects dispatcher counters for the session.
func openReader(ctx context.Context) (*reader.Reader, *reader.Counters, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, nil, err
	}
	t, err := p.transport()
	if err != nil {
		return nil, nil, err
	}
	counters := reader.NewCounters()
	r, err := reader.Open(ctx, t,
		reader.WithAddress(p.Address),
		reader.WithTimeout(p.Timeout),
		reader.WithStatsServer(counters),
	)
	if err != nil {
		return nil, nil, err
	}
	return r, counters, nil
}

// Execute is the main entry point for the CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
