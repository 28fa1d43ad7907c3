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
	"encoding/binary"
	"fmt"
)

// EncodeRelayOpRequest encodes the relay command parameters (TLV 0x27).
func EncodeRelayOpRequest(state RelayState) ([]byte, error) {
	if state > RelayPulse {
		return nil, fmt.Errorf("%w: relay state 0x%02X must be off(0), on(1) or pulse(2)", ErrInvalidArgument, uint8(state))
	}
	return BuildTLV(TagRelay, []byte{byte(state)})
}

// EncodeAudioPlayRequest encodes the audio command parameters (TLV 0x28).
// The caller chooses the payload encoding (text in UTF-8/GBK, or an index).
func EncodeAudioPlayRequest(audio []byte) ([]byte, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio data cannot be empty", ErrInvalidArgument)
	}
	return BuildTLV(TagAudioText, audio)
}

// EncodeSetModbusParamsRequest encodes the modbus settings as individual
// TLVs, one per field.
func EncodeSetModbusParamsRequest(p ModbusParams) ([]byte, error) {
	var out []byte
	addr, err := BuildTLV(TagModbusAddress, []byte{p.Address})
	if err != nil {
		return nil, err
	}
	out = append(out, addr...)
	baudBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(baudBytes, p.BaudRateCode)
	baud, err := BuildTLV(TagBaudRate, baudBytes)
	if err != nil {
		return nil, err
	}
	out = append(out, baud...)
	parity, err := BuildTLV(TagModbusParity, []byte{p.ParityCode})
	if err != nil {
		return nil, err
	}
	out = append(out, parity...)
	stop, err := BuildTLV(TagModbusStopBits, []byte{p.StopBitsCode})
	if err != nil {
		return nil, err
	}
	out = append(out, stop...)
	if p.ProtocolCode != nil {
		proto, err := BuildTLV(TagModbusProtocol, []byte{*p.ProtocolCode})
		if err != nil {
			return nil, err
		}
		out = append(out, proto...)
	}
	return out, nil
}

func modbusField(vals Values, tag Tag, width int, what string) ([]byte, error) {
	v, ok := vals[tag]
	if !ok {
		return nil, fmt.Errorf("%w: modbus %s TLV (0x%02X) missing in response", ErrProtocol, what, uint8(tag))
	}
	raw, ok := v.([]byte)
	if !ok || len(raw) != width {
		return nil, fmt.Errorf("%w: modbus %s TLV has invalid value %v", ErrProtocol, what, v)
	}
	return raw, nil
}

// DecodeGetModbusParamsResponse reassembles the modbus settings from the
// individual TLVs of a query response. The protocol code is optional.
func DecodeGetModbusParamsResponse(vals Values) (ModbusParams, error) {
	var p ModbusParams
	addr, err := modbusField(vals, TagModbusAddress, 1, "address")
	if err != nil {
		return p, err
	}
	baud, err := modbusField(vals, TagBaudRate, 4, "baud rate")
	if err != nil {
		return p, err
	}
	parity, err := modbusField(vals, TagModbusParity, 1, "parity")
	if err != nil {
		return p, err
	}
	stop, err := modbusField(vals, TagModbusStopBits, 1, "stop bits")
	if err != nil {
		return p, err
	}
	p.Address = addr[0]
	p.BaudRateCode = binary.BigEndian.Uint32(baud)
	p.ParityCode = parity[0]
	p.StopBitsCode = stop[0]
	if raw, ok := vals[TagModbusProtocol].([]byte); ok && len(raw) == 1 {
		code := raw[0]
		p.ProtocolCode = &code
	}
	return p, nil
}
