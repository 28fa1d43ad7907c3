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

package transport

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Serial is a Transport over a local serial port.
type Serial struct {
	device string
	mode   *serial.Mode

	mu        sync.Mutex
	port      serial.Port
	sink      DataSink
	connected bool
	wg        sync.WaitGroup
}

// NewSerial creates a serial transport for the given device. A nil mode means
// 115200 8N1, the CPH factory default.
func NewSerial(device string, mode *serial.Mode) *Serial {
	if mode == nil {
		mode = &serial.Mode{
			BaudRate: 115200,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}
	return &Serial{device: device, mode: mode}
}

// Connect opens the port and starts the background reader goroutine.
func (s *Serial) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return ErrAlreadyConnected
	}
	port, err := serial.Open(s.device, s.mode)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.device, err)
	}
	s.port = port
	s.connected = true
	s.wg.Add(1)
	go s.readLoop(port)
	log.Debugf("opened serial port %s at %d baud", s.device, s.mode.BaudRate)
	return nil
}

// Disconnect closes the port and waits for the reader goroutine to stop.
func (s *Serial) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	port := s.port
	s.port = nil
	s.mu.Unlock()
	err := port.Close()
	s.wg.Wait()
	log.Debugf("closed serial port %s", s.device)
	return err
}

// Send writes all bytes to the port.
func (s *Serial) Send(_ context.Context, data []byte) error {
	s.mu.Lock()
	port := s.port
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return fmt.Errorf("cannot send to %s: %w", s.device, ErrNotConnected)
	}
	for len(data) > 0 {
		n, err := port.Write(data)
		if err != nil {
			s.markBroken(port)
			return fmt.Errorf("write to %s: %w", s.device, err)
		}
		data = data[n:]
	}
	return nil
}

// RegisterSink sets the receiver of inbound bytes.
func (s *Serial) RegisterSink(sink DataSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// UnregisterSink removes the receiver of inbound bytes.
func (s *Serial) UnregisterSink() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = nil
}

// Connected reports whether the port is open.
func (s *Serial) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Serial) markBroken(port serial.Port) {
	s.mu.Lock()
	if s.port == port {
		s.connected = false
		s.port = nil
	}
	s.mu.Unlock()
	_ = port.Close()
}

func (s *Serial) readLoop(port serial.Port) {
	defer s.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			s.mu.Lock()
			sink := s.sink
			deliver := s.connected
			s.mu.Unlock()
			if deliver && sink != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				sink(data)
			}
		}
		if err != nil {
			s.mu.Lock()
			wasConnected := s.connected
			s.mu.Unlock()
			if wasConnected {
				log.Warnf("read from %s failed: %v", s.device, err)
				s.markBroken(port)
			}
			return
		}
	}
}
