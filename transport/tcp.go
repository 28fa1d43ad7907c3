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
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// TCP is a Transport over a TCP connection to the reader.
type TCP struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	sink      DataSink
	connected bool
	wg        sync.WaitGroup
}

// NewTCP creates a TCP transport for host:port. No connection is made until
// Connect.
func NewTCP(host string, port int) *TCP {
	return &TCP{addr: net.JoinHostPort(host, fmt.Sprintf("%d", port))}
}

// Connect dials the reader and starts the background reader goroutine.
func (t *TCP) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return ErrAlreadyConnected
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", t.addr, err)
	}
	t.conn = conn
	t.connected = true
	t.wg.Add(1)
	go t.readLoop(conn)
	log.Debugf("connected to %s", t.addr)
	return nil
}

// Disconnect closes the connection and waits for the reader goroutine to stop.
func (t *TCP) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	t.connected = false
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	err := conn.Close()
	t.wg.Wait()
	log.Debugf("disconnected from %s", t.addr)
	return err
}

// Send writes all bytes to the connection.
func (t *TCP) Send(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	connected := t.connected
	t.mu.Unlock()
	if !connected {
		return fmt.Errorf("cannot send to %s: %w", t.addr, ErrNotConnected)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		defer conn.SetWriteDeadline(noDeadline)
	}
	if _, err := conn.Write(data); err != nil {
		t.markBroken(conn)
		return fmt.Errorf("write to %s: %w", t.addr, err)
	}
	return nil
}

// RegisterSink sets the receiver of inbound bytes.
func (t *TCP) RegisterSink(sink DataSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
}

// UnregisterSink removes the receiver of inbound bytes.
func (t *TCP) UnregisterSink() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = nil
}

// Connected reports whether the connection is up.
func (t *TCP) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// markBroken transitions to disconnected after an I/O failure so the sink is
// no longer invoked.
func (t *TCP) markBroken(conn net.Conn) {
	t.mu.Lock()
	if t.conn == conn {
		t.connected = false
		t.conn = nil
	}
	t.mu.Unlock()
	_ = conn.Close()
}

func (t *TCP) readLoop(conn net.Conn) {
	defer t.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			t.mu.Lock()
			sink := t.sink
			deliver := t.connected
			t.mu.Unlock()
			if deliver && sink != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				sink(data)
			}
		}
		if err != nil {
			t.mu.Lock()
			wasConnected := t.connected
			t.mu.Unlock()
			if wasConnected {
				log.Warnf("read from %s failed: %v", t.addr, err)
				t.markBroken(conn)
			}
			return
		}
	}
}
