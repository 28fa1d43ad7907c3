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

// Package transport provides the byte-stream channels the dispatcher talks
// through: TCP, UDP and serial, plus a queue-backed mock for tests. A
// transport owns one background reader that delivers received bytes to the
// registered sink in arrival order while connected.
package transport

import (
	"context"
	"errors"
	"time"
)

// DataSink receives raw bytes read from the channel, in arrival order.
type DataSink func(data []byte)

// Transport is the narrow byte-stream capability the dispatcher consumes.
type Transport interface {
	// Connect establishes the underlying channel and starts the background
	// reader.
	Connect(ctx context.Context) error
	// Disconnect tears the channel down and stops the background reader.
	// Safe to call when not connected.
	Disconnect() error
	// Send writes all bytes to the channel.
	Send(ctx context.Context, data []byte) error
	// RegisterSink sets the one sink that receives inbound bytes.
	RegisterSink(sink DataSink)
	// UnregisterSink removes the sink.
	UnregisterSink()
	// Connected reports whether the channel is up.
	Connected() bool
}

// transport errors
var (
	// ErrNotConnected is returned by Send when the channel is down.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by Connect on a connected transport.
	ErrAlreadyConnected = errors.New("already connected")
)

const readBufferSize = 4096

// noDeadline clears a previously set I/O deadline.
var noDeadline = time.Time{}
