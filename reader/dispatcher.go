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

// Package reader correlates CPH responses to waiting commands, fans out
// notifications to subscribers and exposes the typed operation facade.
package reader

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aaamil13/uhf-rfid-sdk/cph"
	"github.com/aaamil13/uhf-rfid-sdk/transport"
)

// DefaultResponseTimeout is how long a command waits for its response.
const DefaultResponseTimeout = 2 * time.Second

// rxBufWarnThreshold is the receive-buffer size past which the dispatcher
// suspects a desynchronized or runaway peer.
const rxBufWarnThreshold = 4096

// NotificationCallback handles one notification frame. The params value is
// the parsed TLV map of the frame's parameter region. A returned error is
// logged and never affects other callbacks.
type NotificationCallback func(frameType cph.FrameType, address uint16, code cph.FrameCode, params cph.Values) error

type response struct {
	vals cph.Values
	err  error
}

type subscription struct {
	key uintptr
	cb  NotificationCallback
}

// Dispatcher assembles frames from the transport byte stream, resolves
// command waiters by frame code and fans out notifications. At most one
// command per code can be outstanding; a second one evicts the first with
// ErrSuperseded.
type Dispatcher struct {
	t       transport.Transport
	timeout time.Duration
	stats   StatsServer

	mu      sync.Mutex
	pending map[cph.FrameCode]chan response
	closed  bool

	subMu sync.Mutex
	subs  map[cph.FrameCode][]subscription

	// sendMu serializes whole-frame writes so they are not interleaved on
	// the wire.
	sendMu sync.Mutex

	rxMu  sync.Mutex
	rxBuf []byte
}

// DispatcherOption tweaks a Dispatcher at construction time.
type DispatcherOption func(*Dispatcher)

// WithResponseTimeout overrides DefaultResponseTimeout.
func WithResponseTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithStats routes dispatcher counters to the given server.
func WithStats(s StatsServer) DispatcherOption {
	return func(disp *Dispatcher) { disp.stats = s }
}

// NewDispatcher creates a dispatcher on top of the transport and registers
// itself as the transport's receive sink.
func NewDispatcher(t transport.Transport, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		t:       t,
		timeout: DefaultResponseTimeout,
		stats:   noStats{},
		pending: map[cph.FrameCode]chan response{},
		subs:    map[cph.FrameCode][]subscription{},
	}
	for _, opt := range opts {
		opt(d)
	}
	t.RegisterSink(d.HandleData)
	return d
}

// HandleData is the transport sink: it appends the chunk to the receive
// buffer and extracts as many complete frames as possible. Codec errors are
// local; they never stop the loop.
func (d *Dispatcher) HandleData(data []byte) {
	d.stats.UpdateCounterBy(StatsRxBytes, int64(len(data)))
	d.rxMu.Lock()
	d.rxBuf = append(d.rxBuf, data...)
	var frames []*cph.Frame
	for {
		frame := cph.FindAndParseFrame(&d.rxBuf)
		if frame == nil {
			break
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 && len(d.rxBuf) > rxBufWarnThreshold {
		log.Warnf("receive buffer holds %d bytes without a complete frame; stream may be desynchronized", len(d.rxBuf))
	}
	d.rxMu.Unlock()

	for _, frame := range frames {
		d.handleFrame(frame)
	}
}

func (d *Dispatcher) handleFrame(frame *cph.Frame) {
	d.stats.UpdateCounterBy(StatsRxFrames, 1)
	vals, err := cph.ParseTLVSequence(frame.Parameters)
	if err != nil {
		d.stats.UpdateCounterBy(StatsRxFrameErrors, 1)
		log.Errorf("parsing parameters of frame type=%s code=0x%02X: %v", frame.Type, uint8(frame.Code), err)
		return
	}
	switch frame.Type {
	case cph.FrameTypeResponse:
		d.handleResponse(frame, vals)
	case cph.FrameTypeNotification:
		d.handleNotification(frame, vals)
	case cph.FrameTypeCommand:
		log.Warnf("received unexpected command frame: addr=0x%04X code=0x%02X", frame.Address, uint8(frame.Code))
	default:
		log.Warnf("received unknown frame type 0x%02X", uint8(frame.Type))
	}
}

func (d *Dispatcher) handleResponse(frame *cph.Frame, vals cph.Values) {
	d.stats.UpdateCounterBy(StatsRxResponses, 1)
	d.mu.Lock()
	ch, ok := d.pending[frame.Code]
	if ok {
		delete(d.pending, frame.Code)
	}
	d.mu.Unlock()
	if !ok {
		d.stats.UpdateCounterBy(StatsRxUnexpected, 1)
		log.Warnf("unexpected or late response for command 0x%02X", uint8(frame.Code))
		return
	}
	if status, found := vals[cph.TagStatus].(cph.Status); found && status != cph.StatusSuccess {
		log.Warnf("reader responded with error status 0x%02X for command 0x%02X", uint8(status), uint8(frame.Code))
		ch <- response{err: &CommandError{Status: status}}
		return
	}
	ch <- response{vals: vals}
}

func (d *Dispatcher) handleNotification(frame *cph.Frame, vals cph.Values) {
	d.stats.UpdateCounterBy(StatsRxNotifications, 1)
	d.subMu.Lock()
	callbacks := make([]subscription, len(d.subs[frame.Code]))
	copy(callbacks, d.subs[frame.Code])
	d.subMu.Unlock()
	if len(callbacks) == 0 {
		log.Debugf("no callbacks registered for notification code 0x%02X", uint8(frame.Code))
		return
	}
	for _, sub := range callbacks {
		go func(cb NotificationCallback) {
			if err := cb(frame.Type, frame.Address, frame.Code, vals); err != nil {
				log.Errorf("notification callback for code 0x%02X: %v", uint8(frame.Code), err)
			}
		}(sub.cb)
	}
}

// SendCommandWaitResponse encodes the command into a frame, writes it and
// waits for the matching response. It returns the parsed TLV map of the
// response (status TLV included); callers perform typed decoding downstream.
func (d *Dispatcher) SendCommandWaitResponse(ctx context.Context, code cph.FrameCode, address uint16, params []byte) (cph.Values, error) {
	if !d.t.Connected() {
		return nil, fmt.Errorf("cannot send command: %w", transport.ErrNotConnected)
	}
	ch := make(chan response, 1)
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDispatcherClosed
	}
	if old, ok := d.pending[code]; ok {
		log.Errorf("command collision: already waiting for response to code 0x%02X", uint8(code))
		old <- response{err: ErrSuperseded}
	}
	d.pending[code] = ch
	d.mu.Unlock()

	frame, err := cph.BuildFrame(cph.FrameTypeCommand, address, code, params)
	if err != nil {
		d.removePending(code, ch)
		return nil, err
	}
	d.sendMu.Lock()
	err = d.t.Send(ctx, frame)
	d.sendMu.Unlock()
	if err != nil {
		d.removePending(code, ch)
		return nil, err
	}
	d.stats.UpdateCounterBy(StatsTxCommands, 1)

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp.vals, resp.err
	case <-timer.C:
		d.removePending(code, ch)
		d.stats.UpdateCounterBy(StatsTimeouts, 1)
		return nil, fmt.Errorf("no response for command 0x%02X within %v: %w", uint8(code), d.timeout, ErrTimeout)
	case <-ctx.Done():
		// the dispatcher keeps owning the handle until the response lands,
		// the timeout fires or cleanup runs; the outer timer is stopped by
		// the deferred Stop, so the reaper runs its own
		go func() {
			reaper := time.NewTimer(d.timeout)
			defer reaper.Stop()
			select {
			case <-ch:
			case <-reaper.C:
				d.removePending(code, ch)
				d.stats.UpdateCounterBy(StatsTimeouts, 1)
			}
		}()
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) removePending(code cph.FrameCode, ch chan response) {
	d.mu.Lock()
	if d.pending[code] == ch {
		delete(d.pending, code)
	}
	d.mu.Unlock()
}

// PendingCount reports how many commands are waiting for a response.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func callbackKey(cb NotificationCallback) uintptr {
	return reflect.ValueOf(cb).Pointer()
}

// RegisterNotificationCallback subscribes the callback to the given frame
// code. The same callback is not added twice for one code.
func (d *Dispatcher) RegisterNotificationCallback(code cph.FrameCode, cb NotificationCallback) {
	key := callbackKey(cb)
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, sub := range d.subs[code] {
		if sub.key == key {
			log.Warnf("callback already registered for code 0x%02X", uint8(code))
			return
		}
	}
	d.subs[code] = append(d.subs[code], subscription{key: key, cb: cb})
}

// UnregisterNotificationCallback removes the callback from the given frame code.
func (d *Dispatcher) UnregisterNotificationCallback(code cph.FrameCode, cb NotificationCallback) {
	key := callbackKey(cb)
	d.subMu.Lock()
	defer d.subMu.Unlock()
	list := d.subs[code]
	for i, sub := range list {
		if sub.key == key {
			d.subs[code] = append(list[:i], list[i+1:]...)
			if len(d.subs[code]) == 0 {
				delete(d.subs, code)
			}
			return
		}
	}
	log.Warnf("callback not found for code 0x%02X", uint8(code))
}

// UnregisterCallbackFromAll removes the callback from every code it appears under.
func (d *Dispatcher) UnregisterCallbackFromAll(cb NotificationCallback) {
	key := callbackKey(cb)
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for code, list := range d.subs {
		for i, sub := range list {
			if sub.key == key {
				d.subs[code] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(d.subs[code]) == 0 {
			delete(d.subs, code)
		}
	}
}

// ClearBuffer drops whatever sits in the receive buffer.
func (d *Dispatcher) ClearBuffer() {
	d.rxMu.Lock()
	d.rxBuf = nil
	d.rxMu.Unlock()
}

// Cleanup cancels every pending waiter with ErrDispatcherClosed and clears
// all subscriptions. The dispatcher accepts no further commands afterwards.
func (d *Dispatcher) Cleanup() {
	d.mu.Lock()
	d.closed = true
	for code, ch := range d.pending {
		log.Warnf("cancelling pending response for command 0x%02X during cleanup", uint8(code))
		ch <- response{err: ErrDispatcherClosed}
	}
	d.pending = map[cph.FrameCode]chan response{}
	d.mu.Unlock()
	d.subMu.Lock()
	d.subs = map[cph.FrameCode][]subscription{}
	d.subMu.Unlock()
}
