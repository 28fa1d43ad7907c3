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

// UDP is a Transport over a connected UDP socket. Readers speaking CPH over
// UDP answer datagrams to the source port, so one connected socket is enough.
type UDP struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	sink      DataSink
	connected bool
	wg        sync.WaitGroup
}

// NewUDP creates a UDP transport for host:port.
func NewUDP(host string, port int) *UDP {
	return &UDP{addr: net.JoinHostPort(host, fmt.Sprintf("%d", port))}
}

// Connect opens the socket and starts the background reader goroutine.
func (u *UDP) Connect(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.connected {
		return ErrAlreadyConnected
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", u.addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", u.addr, err)
	}
	u.conn = conn
	u.connected = true
	u.wg.Add(1)
	go u.readLoop(conn)
	log.Debugf("UDP socket open to %s", u.addr)
	return nil
}

// Disconnect closes the socket and waits for the reader goroutine to stop.
func (u *UDP) Disconnect() error {
	u.mu.Lock()
	if !u.connected {
		u.mu.Unlock()
		return nil
	}
	u.connected = false
	conn := u.conn
	u.conn = nil
	u.mu.Unlock()
	err := conn.Close()
	u.wg.Wait()
	return err
}

// Send writes one datagram to the socket.
func (u *UDP) Send(ctx context.Context, data []byte) error {
	u.mu.Lock()
	conn := u.conn
	connected := u.connected
	u.mu.Unlock()
	if !connected {
		return fmt.Errorf("cannot send to %s: %w", u.addr, ErrNotConnected)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		defer conn.SetWriteDeadline(noDeadline)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write to %s: %w", u.addr, err)
	}
	return nil
}

// RegisterSink sets the receiver of inbound bytes.
func (u *UDP) RegisterSink(sink DataSink) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sink = sink
}

// UnregisterSink removes the receiver of inbound bytes.
func (u *UDP) UnregisterSink() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sink = nil
}

// Connected reports whether the socket is open.
func (u *UDP) Connected() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.connected
}

func (u *UDP) readLoop(conn net.Conn) {
	defer u.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			u.mu.Lock()
			sink := u.sink
			deliver := u.connected
			u.mu.Unlock()
			if deliver && sink != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				sink(data)
			}
		}
		if err != nil {
			u.mu.Lock()
			wasConnected := u.connected
			u.connected = false
			u.mu.Unlock()
			if wasConnected {
				log.Warnf("read from %s failed: %v", u.addr, err)
				_ = conn.Close()
			}
			return
		}
	}
}
