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
	"net"
)

// Fixed-layout parameter blocks. Each encodes to an exact byte count and is
// carried inside its designated wrapper TLV; decode rejects any other length.

// ExtParams is the extended parameter block (TLV 0x29), 5 bytes.
type ExtParams struct {
	RelayMode  uint8 // 0 auto, 1 manual
	RelayTime  uint8 // seconds
	VerifyFlag uint8 // 0 disable, 1 enable tag verification
	VerifyPwd  uint16
}

const extParamsLen = 5

// MarshalBinary encodes the block into its 5-byte wire form.
func (p *ExtParams) MarshalBinary() ([]byte, error) {
	if p.RelayMode > 1 {
		return nil, fmt.Errorf("%w: relay mode must be 0 or 1", ErrInvalidArgument)
	}
	if p.VerifyFlag > 1 {
		return nil, fmt.Errorf("%w: verify flag must be 0 or 1", ErrInvalidArgument)
	}
	b := make([]byte, extParamsLen)
	b[0] = p.RelayMode
	b[1] = p.RelayTime
	b[2] = p.VerifyFlag
	binary.BigEndian.PutUint16(b[3:], p.VerifyPwd)
	return b, nil
}

// UnmarshalBinary decodes the 5-byte wire form.
func (p *ExtParams) UnmarshalBinary(b []byte) error {
	if len(b) != extParamsLen {
		return fmt.Errorf("%w: ext params expect %d bytes, got %d", ErrInvalidTLVValue, extParamsLen, len(b))
	}
	p.RelayMode = b[0]
	p.RelayTime = b[1]
	p.VerifyFlag = b[2]
	p.VerifyPwd = binary.BigEndian.Uint16(b[3:])
	return nil
}

// WorkingParams is the working parameter block (TLV 0x23), 18 bytes.
type WorkingParams struct {
	ReadDuration         uint16
	ReadInterval         uint16
	WorkMode             uint8 // 0 answer, 1 active, 2 trigger
	TagUploadFlag        uint16
	TriggerModeOutput    uint8
	WiegandProtocol      uint8 // 0 Wiegand26, 1 Wiegand34
	WiegandInterval      uint16
	WiegandPulseWidth    uint16
	WiegandPulseInterval uint16
	ISOArea              uint8
	ISOAddr              uint8
	ISOWordCount         uint8
}

const workingParamsLen = 18

// MarshalBinary encodes the block into its 18-byte wire form.
func (p *WorkingParams) MarshalBinary() ([]byte, error) {
	if p.WorkMode > 2 {
		return nil, fmt.Errorf("%w: work mode must be 0, 1 or 2", ErrInvalidArgument)
	}
	b := make([]byte, workingParamsLen)
	binary.BigEndian.PutUint16(b[0:], p.ReadDuration)
	binary.BigEndian.PutUint16(b[2:], p.ReadInterval)
	b[4] = p.WorkMode
	binary.BigEndian.PutUint16(b[5:], p.TagUploadFlag)
	b[7] = p.TriggerModeOutput
	b[8] = p.WiegandProtocol
	binary.BigEndian.PutUint16(b[9:], p.WiegandInterval)
	binary.BigEndian.PutUint16(b[11:], p.WiegandPulseWidth)
	binary.BigEndian.PutUint16(b[13:], p.WiegandPulseInterval)
	b[15] = p.ISOArea
	b[16] = p.ISOAddr
	b[17] = p.ISOWordCount
	return b, nil
}

// UnmarshalBinary decodes the 18-byte wire form.
func (p *WorkingParams) UnmarshalBinary(b []byte) error {
	if len(b) != workingParamsLen {
		return fmt.Errorf("%w: working params expect %d bytes, got %d", ErrInvalidTLVValue, workingParamsLen, len(b))
	}
	p.ReadDuration = binary.BigEndian.Uint16(b[0:])
	p.ReadInterval = binary.BigEndian.Uint16(b[2:])
	p.WorkMode = b[4]
	p.TagUploadFlag = binary.BigEndian.Uint16(b[5:])
	p.TriggerModeOutput = b[7]
	p.WiegandProtocol = b[8]
	p.WiegandInterval = binary.BigEndian.Uint16(b[9:])
	p.WiegandPulseWidth = binary.BigEndian.Uint16(b[11:])
	p.WiegandPulseInterval = binary.BigEndian.Uint16(b[13:])
	p.ISOArea = b[15]
	p.ISOAddr = b[16]
	p.ISOWordCount = b[17]
	return nil
}

// TransportParams is the transport parameter block (TLV 0x24), 27 bytes.
type TransportParams struct {
	TransportType     uint8 // 0 RS232, 1 RS485, 2 TCP server, 3 TCP client, 4 WIFI server, 5 WIFI client
	UartBaudRate      uint32
	DHCPFlag          uint8 // 0 static, 1 DHCP
	IPAddr            net.IP
	SubnetMask        net.IP
	Gateway           net.IP
	LocalPort         uint16
	RemoteIPAddr      net.IP
	RemotePort        uint16
	HeartbeatInterval uint8 // seconds, 0 disables
}

const transportParamsLen = 27

func appendIPv4(b []byte, ip net.IP, what string) ([]byte, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("%w: %s %v is not an IPv4 address", ErrInvalidArgument, what, ip)
	}
	return append(b, v4...), nil
}

// MarshalBinary encodes the block into its 27-byte wire form.
func (p *TransportParams) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, transportParamsLen)
	b = append(b, p.TransportType)
	b = binary.BigEndian.AppendUint32(b, p.UartBaudRate)
	b = append(b, p.DHCPFlag)
	var err error
	if b, err = appendIPv4(b, p.IPAddr, "IP address"); err != nil {
		return nil, err
	}
	if b, err = appendIPv4(b, p.SubnetMask, "subnet mask"); err != nil {
		return nil, err
	}
	if b, err = appendIPv4(b, p.Gateway, "gateway"); err != nil {
		return nil, err
	}
	b = binary.BigEndian.AppendUint16(b, p.LocalPort)
	if b, err = appendIPv4(b, p.RemoteIPAddr, "remote IP address"); err != nil {
		return nil, err
	}
	b = binary.BigEndian.AppendUint16(b, p.RemotePort)
	b = append(b, p.HeartbeatInterval)
	return b, nil
}

// UnmarshalBinary decodes the 27-byte wire form.
func (p *TransportParams) UnmarshalBinary(b []byte) error {
	if len(b) != transportParamsLen {
		return fmt.Errorf("%w: transport params expect %d bytes, got %d", ErrInvalidTLVValue, transportParamsLen, len(b))
	}
	p.TransportType = b[0]
	p.UartBaudRate = binary.BigEndian.Uint32(b[1:])
	p.DHCPFlag = b[5]
	p.IPAddr = net.IPv4(b[6], b[7], b[8], b[9]).To4()
	p.SubnetMask = net.IPv4(b[10], b[11], b[12], b[13]).To4()
	p.Gateway = net.IPv4(b[14], b[15], b[16], b[17]).To4()
	p.LocalPort = binary.BigEndian.Uint16(b[18:])
	p.RemoteIPAddr = net.IPv4(b[20], b[21], b[22], b[23]).To4()
	p.RemotePort = binary.BigEndian.Uint16(b[24:])
	p.HeartbeatInterval = b[26]
	return nil
}

// AdvanceParams is the RF tuning parameter block (TLV 0x25), 23 bytes. The
// layout is inferred from the vendor structures; round-trip tests pin it.
type AdvanceParams struct {
	LinkProfile       uint8
	Region            uint8
	SpectrumStart     uint32 // kHz
	SpectrumEnd       uint32 // kHz
	InventoryAntFlag  uint32 // antenna bitmask
	InventorySession  uint8  // 0-3
	InventoryTarget   uint8  // A=0, B=1
	FM0Div            uint8
	MillerType        uint8
	FilterCoefficient uint8
	Tari              uint8
	WritePower        uint16 // dBm
	CarrierFlag       uint8
}

const advanceParamsLen = 23

// MarshalBinary encodes the block into its 23-byte wire form.
func (p *AdvanceParams) MarshalBinary() ([]byte, error) {
	if p.InventorySession > 3 {
		return nil, fmt.Errorf("%w: inventory session must be 0..3", ErrInvalidArgument)
	}
	b := make([]byte, 0, advanceParamsLen)
	b = append(b, p.LinkProfile, p.Region)
	b = binary.BigEndian.AppendUint32(b, p.SpectrumStart)
	b = binary.BigEndian.AppendUint32(b, p.SpectrumEnd)
	b = binary.BigEndian.AppendUint32(b, p.InventoryAntFlag)
	b = append(b, p.InventorySession, p.InventoryTarget, p.FM0Div, p.MillerType, p.FilterCoefficient, p.Tari)
	b = binary.BigEndian.AppendUint16(b, p.WritePower)
	b = append(b, p.CarrierFlag)
	return b, nil
}

// UnmarshalBinary decodes the 23-byte wire form.
func (p *AdvanceParams) UnmarshalBinary(b []byte) error {
	if len(b) != advanceParamsLen {
		return fmt.Errorf("%w: advance params expect %d bytes, got %d", ErrInvalidTLVValue, advanceParamsLen, len(b))
	}
	p.LinkProfile = b[0]
	p.Region = b[1]
	p.SpectrumStart = binary.BigEndian.Uint32(b[2:])
	p.SpectrumEnd = binary.BigEndian.Uint32(b[6:])
	p.InventoryAntFlag = binary.BigEndian.Uint32(b[10:])
	p.InventorySession = b[14]
	p.InventoryTarget = b[15]
	p.FM0Div = b[16]
	p.MillerType = b[17]
	p.FilterCoefficient = b[18]
	p.Tari = b[19]
	p.WritePower = binary.BigEndian.Uint16(b[20:])
	p.CarrierFlag = b[22]
	return nil
}

// UsbDataParams is the USB HID parameter block (TLV 0x2A), 3 bytes.
type UsbDataParams struct {
	USBEnable      uint8
	DataInterval   uint8
	KeyboardLayout uint8
}

const usbDataParamsLen = 3

// MarshalBinary encodes the block into its 3-byte wire form.
func (p *UsbDataParams) MarshalBinary() ([]byte, error) {
	return []byte{p.USBEnable, p.DataInterval, p.KeyboardLayout}, nil
}

// UnmarshalBinary decodes the 3-byte wire form.
func (p *UsbDataParams) UnmarshalBinary(b []byte) error {
	if len(b) != usbDataParamsLen {
		return fmt.Errorf("%w: USB data params expect %d bytes, got %d", ErrInvalidTLVValue, usbDataParamsLen, len(b))
	}
	p.USBEnable = b[0]
	p.DataInterval = b[1]
	p.KeyboardLayout = b[2]
	return nil
}

// DataFlagParams is the upload data format block (TLV 0x2B), 3 bytes.
type DataFlagParams struct {
	DataFlag   uint16 // bitmask: EPC, TID, RSSI, antenna
	DataFormat uint8  // 0 hex, 1 decimal
}

const dataFlagParamsLen = 3

// MarshalBinary encodes the block into its 3-byte wire form.
func (p *DataFlagParams) MarshalBinary() ([]byte, error) {
	b := make([]byte, dataFlagParamsLen)
	binary.BigEndian.PutUint16(b[0:], p.DataFlag)
	b[2] = p.DataFormat
	return b, nil
}

// UnmarshalBinary decodes the 3-byte wire form.
func (p *DataFlagParams) UnmarshalBinary(b []byte) error {
	if len(b) != dataFlagParamsLen {
		return fmt.Errorf("%w: data flag params expect %d bytes, got %d", ErrInvalidTLVValue, dataFlagParamsLen, len(b))
	}
	p.DataFlag = binary.BigEndian.Uint16(b[0:])
	p.DataFormat = b[2]
	return nil
}

// ModbusParams describes the reader's Modbus settings. Unlike the other
// blocks it travels as individual TLVs, one per field (see the modbus command
// encoders).
type ModbusParams struct {
	Address      uint8
	BaudRateCode uint32
	ParityCode   uint8
	StopBitsCode uint8
	ProtocolCode *uint8 // optional
}
