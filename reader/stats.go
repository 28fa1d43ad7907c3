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

package reader

import "sync"

// counter keys the dispatcher maintains
const (
	StatsRxBytes         = "rfid.rx.bytes"
	StatsRxFrames        = "rfid.rx.frames"
	StatsRxFrameErrors   = "rfid.rx.frame_errors"
	StatsRxResponses     = "rfid.rx.responses"
	StatsRxNotifications = "rfid.rx.notifications"
	StatsRxUnexpected    = "rfid.rx.unexpected"
	StatsTxCommands      = "rfid.tx.commands"
	StatsTimeouts        = "rfid.timeouts"
)

// StatsServer is where the dispatcher reports its counters.
type StatsServer interface {
	UpdateCounterBy(key string, count int64)
}

// Counters is a concurrency-safe StatsServer keeping everything in memory.
type Counters struct {
	mu sync.Mutex
	m  map[string]int64
}

// NewCounters creates an empty counter set.
func NewCounters() *Counters {
	return &Counters{m: map[string]int64{}}
}

// UpdateCounterBy adds count to the named counter.
func (c *Counters) UpdateCounterBy(key string, count int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] += count
}

// Get returns the current value of the named counter.
func (c *Counters) Get(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key]
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	return out
}

// noStats discards all updates; used when the caller does not care.
type noStats struct{}

func (noStats) UpdateCounterBy(string, int64) {}
