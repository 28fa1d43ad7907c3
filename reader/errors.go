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

import (
	"errors"
	"fmt"

	"github.com/aaamil13/uhf-rfid-sdk/cph"
)

// dispatcher errors
var (
	// ErrTimeout means no response arrived within the configured window.
	ErrTimeout = errors.New("timeout waiting for reader response")
	// ErrSuperseded means a newer command with the same code evicted the wait.
	ErrSuperseded = errors.New("superseded by a newer command with the same code")
	// ErrDispatcherClosed means the dispatcher was torn down while waiting.
	ErrDispatcherClosed = errors.New("dispatcher closed")
	// ErrUnexpectedResponse means a response arrived that no command waits for.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// CommandError carries a non-zero status byte reported by the reader.
type CommandError struct {
	Status cph.Status
}

// Message returns the documented meaning of the status code.
func (e *CommandError) Message() string {
	return e.Status.Message()
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("reader error 0x%02X: %s", uint8(e.Status), e.Status.Message())
}
