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

package cph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Frame is one decoded CPH frame.
type Frame struct {
	Type       FrameType
	Address    uint16
	Code       FrameCode
	Parameters []byte
}

// Checksum computes the CPH frame checksum: the two's complement of the
// unsigned-byte sum of everything from the header through the parameters.
func Checksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// BuildFrame assembles a complete frame including header and checksum.
func BuildFrame(frameType FrameType, address uint16, code FrameCode, parameters []byte) ([]byte, error) {
	if frameType > FrameTypeNotification {
		return nil, fmt.Errorf("%w: frame type 0x%02X must be 0, 1 or 2", ErrInvalidArgument, uint8(frameType))
	}
	if len(parameters) > 0xFFFF {
		return nil, fmt.Errorf("%w: parameter length %d exceeds 65535", ErrInvalidArgument, len(parameters))
	}
	b := make([]byte, 0, frameFixedLength+len(parameters)+checksumLength)
	b = append(b, FrameHeader...)
	b = append(b, byte(frameType))
	b = binary.BigEndian.AppendUint16(b, address)
	b = append(b, byte(code))
	b = binary.BigEndian.AppendUint16(b, uint16(len(parameters)))
	b = append(b, parameters...)
	b = append(b, Checksum(b))
	return b, nil
}

// ParseFrameHeader locates the first RF marker in data and decodes the frame
// starting there, verifying declared length and checksum. It returns the
// decoded frame, the total number of bytes the frame occupies and the index
// of the marker within data.
func ParseFrameHeader(data []byte) (frame Frame, consumed int, start int, err error) {
	if len(data) < MinFrameLength {
		return frame, 0, 0, fmt.Errorf("%w: %d bytes is less than minimum frame length %d", ErrShortInput, len(data), MinFrameLength)
	}
	start = bytes.Index(data, FrameHeader)
	if start < 0 {
		return frame, 0, 0, ErrNoHeader
	}
	if len(data)-start < MinFrameLength {
		return frame, 0, start, fmt.Errorf("%w: %d bytes after header, need at least %d", ErrShortInput, len(data)-start, MinFrameLength)
	}
	b := data[start:]
	frame.Type = FrameType(b[2])
	frame.Address = binary.BigEndian.Uint16(b[3:])
	frame.Code = FrameCode(b[5])
	paramLen := int(binary.BigEndian.Uint16(b[6:]))
	consumed = frameFixedLength + paramLen + checksumLength
	if len(b) < consumed {
		return Frame{}, 0, start, fmt.Errorf("%w: declared parameter length %d requires %d bytes, have %d", ErrShortInput, paramLen, consumed, len(b))
	}
	content := b[:consumed-checksumLength]
	if got, want := b[consumed-checksumLength], Checksum(content); got != want {
		return Frame{}, 0, start, fmt.Errorf("%w: calculated 0x%02X, received 0x%02X", ErrChecksumMismatch, want, got)
	}
	frame.Parameters = content[frameFixedLength:]
	return frame, consumed, start, nil
}

// FindAndParseFrame attempts to extract one frame from the front of buf.
//
// When a complete, valid frame is present the buffer is drained up to and
// including that frame and the frame is returned. When no header is present,
// or a header is present but the frame is still incomplete, the buffer is
// left untouched and nil is returned. When the frame at the header is broken
// (bad checksum), the buffer is advanced past the header bytes so the next
// call resynchronizes on the following marker.
func FindAndParseFrame(buf *[]byte) *Frame {
	if len(*buf) < MinFrameLength {
		return nil
	}
	frame, consumed, start, err := ParseFrameHeader(*buf)
	if err == nil {
		params := make([]byte, len(frame.Parameters))
		copy(params, frame.Parameters)
		frame.Parameters = params
		*buf = (*buf)[start+consumed:]
		return &frame
	}
	start = bytes.Index(*buf, FrameHeader)
	if start < 0 {
		return nil
	}
	if errors.Is(err, ErrShortInput) {
		// header found but the rest of the frame has not arrived yet
		return nil
	}
	log.Warnf("frame error: %v; discarding %d bytes from buffer start", err, start+headerLength)
	*buf = (*buf)[start+headerLength:]
	return nil
}
