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
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// TagReadData is one decoded tag observation from an inventory notification.
type TagReadData struct {
	EPC       string // hex, uppercase
	TID       string // hex, uppercase; empty when not reported
	UserData  []byte
	RSSI      *int8
	Antenna   *uint8
	Timestamp *time.Time
}

var defaultAccessPassword = []byte{0, 0, 0, 0}

// Inventory commands carry no parameters for CPH; session, target and
// filtering are configured through the parameter blocks beforehand.

// EncodeStartInventoryRequest returns the (empty) parameter region of the
// start-inventory command. Options are not part of the CPH wire format and
// are ignored.
func EncodeStartInventoryRequest(opts interface{}) []byte {
	if opts != nil {
		log.Warn("start inventory received options, but CPH ignores them")
	}
	return nil
}

// EncodeActiveInventoryRequest returns the (empty) parameter region of the
// single-burst inventory command.
func EncodeActiveInventoryRequest(opts interface{}) []byte {
	if opts != nil {
		log.Warn("active inventory received options, but CPH ignores them")
	}
	return nil
}

// EncodeStopInventoryRequest returns the (empty) parameter region of the
// stop-inventory command.
func EncodeStopInventoryRequest() []byte {
	return nil
}

// EncodeReadTagMemoryRequest encodes the read-tag command parameters as an
// operation TLV. A nil password means the default all-zero access password.
func EncodeReadTagMemoryRequest(bank MemBank, wordPtr, wordCount int, password []byte) ([]byte, error) {
	if bank > MemBankUser {
		return nil, fmt.Errorf("%w: invalid memory bank 0x%02X", ErrInvalidArgument, uint8(bank))
	}
	if wordCount < 1 {
		return nil, fmt.Errorf("%w: word count must be at least 1", ErrInvalidArgument)
	}
	if password == nil {
		password = defaultAccessPassword
	}
	return BuildOperationTLV(OpTypeRead, uint8(bank), wordPtr, wordCount, password, nil)
}

// DecodeReadTagMemoryResponse extracts the read data from a parsed read-tag
// response. The data travels in the TLV dedicated to the bank that was read.
func DecodeReadTagMemoryResponse(bank MemBank, vals Values) ([]byte, error) {
	var tag Tag
	switch bank {
	case MemBankReserved:
		tag = TagReserveData
	case MemBankEPC:
		tag = TagEPC
	case MemBankTID:
		tag = TagTIDData
	case MemBankUser:
		tag = TagUserData
	default:
		return nil, fmt.Errorf("%w: invalid memory bank 0x%02X", ErrInvalidArgument, uint8(bank))
	}
	v, ok := vals[tag]
	if !ok {
		return nil, fmt.Errorf("%w: data TLV (0x%02X) for bank %s missing in read response", ErrProtocol, uint8(tag), bank)
	}
	switch data := v.(type) {
	case []byte:
		return data, nil
	case string:
		// the sequence parser renders the EPC tag as a hex string
		raw, err := hex.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot decode EPC string %q", ErrProtocol, data)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unexpected read data value %v", ErrProtocol, v)
	}
}

// EncodeWriteTagMemoryRequest encodes the write-tag command parameters. The
// data must be a whole number of 16-bit words.
func EncodeWriteTagMemoryRequest(bank MemBank, wordPtr int, data []byte, password []byte) ([]byte, error) {
	if bank > MemBankUser {
		return nil, fmt.Errorf("%w: invalid memory bank 0x%02X", ErrInvalidArgument, uint8(bank))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: write data cannot be empty", ErrInvalidArgument)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: write data length %d is not a whole number of words", ErrInvalidArgument, len(data))
	}
	if password == nil {
		password = defaultAccessPassword
	}
	return BuildOperationTLV(OpTypeWrite, uint8(bank), wordPtr, len(data)/2, password, data)
}

// EncodeLockTagRequest encodes the lock-tag command parameters. The lock type
// rides in the operation TLV's bank field; pointer and count are zero.
func EncodeLockTagRequest(lockType LockType, password []byte) ([]byte, error) {
	if lockType > LockTypeAccessKillOpen {
		return nil, fmt.Errorf("%w: invalid lock type 0x%02X", ErrInvalidArgument, uint8(lockType))
	}
	if password == nil {
		password = defaultAccessPassword
	}
	return BuildOperationTLV(OpTypeLock, uint8(lockType), 0, 0, password, nil)
}

// EncodeKillTagRequest encodes the kill-tag command parameters: only the
// 4-byte kill password is meaningful.
func EncodeKillTagRequest(killPassword []byte) ([]byte, error) {
	return BuildOperationTLV(OpTypeKill, 0, 0, 0, killPassword, nil)
}

// ParseTagNotification decodes a tag-upload notification (0x80/0x81) payload:
// a single-tag container TLV holding the per-tag TLV sequence.
func ParseTagNotification(params []byte) (TagReadData, error) {
	vals, err := ParseTLVSequence(params)
	if err != nil {
		return TagReadData{}, fmt.Errorf("tag notification: %w", err)
	}
	return TagReadDataFromValues(vals)
}

// TagReadDataFromValues extracts one tag observation from an already-parsed
// notification parameter region.
func TagReadDataFromValues(vals Values) (TagReadData, error) {
	var tag TagReadData
	v, ok := vals[TagSingleTag]
	if !ok {
		return tag, fmt.Errorf("%w: single-tag container TLV (0x50) missing in tag notification", ErrProtocol)
	}
	inner, ok := v.(Values)
	if !ok {
		return tag, fmt.Errorf("%w: unexpected single-tag container value %v", ErrProtocol, v)
	}

	epc, ok := inner[TagEPC]
	if !ok {
		return tag, fmt.Errorf("%w: EPC TLV (0x01) missing in tag notification", ErrProtocol)
	}
	switch e := epc.(type) {
	case string:
		tag.EPC = strings.ToUpper(e)
	case []byte:
		tag.EPC = strings.ToUpper(hex.EncodeToString(e))
	default:
		return tag, fmt.Errorf("%w: unexpected EPC value %v", ErrProtocol, epc)
	}

	if v, ok := inner[TagTIDData].([]byte); ok {
		tag.TID = strings.ToUpper(hex.EncodeToString(v))
	}
	if v, ok := inner[TagUserData].([]byte); ok {
		tag.UserData = v
	}
	if v, ok := inner[TagRSSI].(int8); ok {
		rssi := v
		tag.RSSI = &rssi
	}
	if v, ok := inner[TagAntennaNo].([]byte); ok && len(v) == 1 {
		ant := v[0]
		tag.Antenna = &ant
	}
	switch t := inner[TagTime].(type) {
	case time.Time:
		ts := t
		tag.Timestamp = &ts
	case LegacyTime:
		// opaque legacy counter, no calendar interpretation documented
	case nil:
	default:
		log.Warnf("ignoring unexpected timestamp format in tag notification: %v", t)
	}
	return tag, nil
}
