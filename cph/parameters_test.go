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
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtParamsRoundTrip(t *testing.T) {
	p := ExtParams{RelayMode: 1, RelayTime: 30, VerifyFlag: 1, VerifyPwd: 0xBEEF}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 5)

	var got ExtParams
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, p, got)

	require.Error(t, got.UnmarshalBinary(b[:4]))
	require.Error(t, got.UnmarshalBinary(append(b, 0)))
}

func TestExtParamsValidation(t *testing.T) {
	p := ExtParams{RelayMode: 2}
	_, err := p.MarshalBinary()
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWorkingParamsRoundTrip(t *testing.T) {
	p := WorkingParams{
		ReadDuration:         300,
		ReadInterval:         50,
		WorkMode:             2,
		TagUploadFlag:        0x0105,
		TriggerModeOutput:    1,
		WiegandProtocol:      1,
		WiegandInterval:      20,
		WiegandPulseWidth:    100,
		WiegandPulseInterval: 1500,
		ISOArea:              3,
		ISOAddr:              8,
		ISOWordCount:         4,
	}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 18)

	var got WorkingParams
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, p, got)

	require.Error(t, got.UnmarshalBinary(b[:17]))
}

func TestWorkingParamsValidation(t *testing.T) {
	p := WorkingParams{WorkMode: 3}
	_, err := p.MarshalBinary()
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTransportParamsRoundTrip(t *testing.T) {
	p := TransportParams{
		TransportType:     2,
		UartBaudRate:      115200,
		DHCPFlag:          0,
		IPAddr:            net.IPv4(192, 168, 1, 178).To4(),
		SubnetMask:        net.IPv4(255, 255, 255, 0).To4(),
		Gateway:           net.IPv4(192, 168, 1, 1).To4(),
		LocalPort:         6000,
		RemoteIPAddr:      net.IPv4(192, 168, 1, 100).To4(),
		RemotePort:        6001,
		HeartbeatInterval: 30,
	}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 27)

	var got TransportParams
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, p, got)

	require.Error(t, got.UnmarshalBinary(b[:26]))
}

func TestTransportParamsRejectsNonIPv4(t *testing.T) {
	p := TransportParams{
		IPAddr:       net.ParseIP("2001:db8::1"),
		SubnetMask:   net.IPv4(255, 255, 255, 0),
		Gateway:      net.IPv4(192, 168, 1, 1),
		RemoteIPAddr: net.IPv4(192, 168, 1, 100),
	}
	_, err := p.MarshalBinary()
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAdvanceParamsRoundTrip(t *testing.T) {
	p := AdvanceParams{
		LinkProfile:       1,
		Region:            2,
		SpectrumStart:     902750,
		SpectrumEnd:       927250,
		InventoryAntFlag:  0x0F,
		InventorySession:  1,
		InventoryTarget:   1,
		FM0Div:            2,
		MillerType:        4,
		FilterCoefficient: 6,
		Tari:              1,
		WritePower:        30,
		CarrierFlag:       1,
	}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 23)

	var got AdvanceParams
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, p, got)

	require.Error(t, got.UnmarshalBinary(b[:22]))
}

func TestUsbDataParamsRoundTrip(t *testing.T) {
	p := UsbDataParams{USBEnable: 1, DataInterval: 5, KeyboardLayout: 2}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 3)

	var got UsbDataParams
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, p, got)
	require.Error(t, got.UnmarshalBinary(b[:2]))
}

func TestDataFlagParamsRoundTrip(t *testing.T) {
	p := DataFlagParams{DataFlag: 0x000F, DataFormat: 1}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 3)

	var got DataFlagParams
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, p, got)
	require.Error(t, got.UnmarshalBinary(append(b, 0)))
}
