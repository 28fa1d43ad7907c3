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
	"fmt"
	"time"
)

// DeviceInfo is the decoded get-version response.
type DeviceInfo struct {
	SoftwareVersion VersionInfo
	DeviceType      uint8
}

// EncodeRebootRequest returns the (empty) parameter region of the reboot command.
func EncodeRebootRequest() []byte {
	return nil
}

// EncodeSetDefaultParamsRequest returns the (empty) parameter region of the
// restore-defaults command.
func EncodeSetDefaultParamsRequest() []byte {
	return nil
}

// EncodeGetVersionRequest returns the (empty) parameter region of the
// get-version command.
func EncodeGetVersionRequest() []byte {
	return nil
}

// DecodeGetVersionResponse extracts software version and device type from a
// parsed get-version response.
func DecodeGetVersionResponse(vals Values) (DeviceInfo, error) {
	var info DeviceInfo
	v, ok := vals[TagSoftwareVersion]
	if !ok {
		return info, fmt.Errorf("%w: software version TLV (0x20) missing in response", ErrProtocol)
	}
	ver, ok := v.(VersionInfo)
	if !ok {
		return info, fmt.Errorf("%w: unexpected software version value %v", ErrProtocol, v)
	}
	info.SoftwareVersion = ver
	if v, ok := vals[TagDeviceType]; ok {
		dt, ok := v.(uint8)
		if !ok {
			return info, fmt.Errorf("%w: unexpected device type value %v", ErrProtocol, v)
		}
		info.DeviceType = dt
	}
	return info, nil
}

// EncodeSetRTCRequest encodes the time into the 7-byte time TLV.
func EncodeSetRTCRequest(t time.Time) ([]byte, error) {
	return BuildTimeTLV(t)
}

// EncodeQueryRTCRequest returns the (empty) parameter region of the RTC query.
func EncodeQueryRTCRequest() []byte {
	return nil
}

// DecodeGetRTCResponse extracts the reader clock from a parsed RTC query
// response. Only the 7-byte calendar form is accepted here.
func DecodeGetRTCResponse(vals Values) (time.Time, error) {
	v, ok := vals[TagTime]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: time TLV (0x06) missing in response", ErrProtocol)
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: RTC response carries a non-calendar time value %v", ErrProtocol, v)
	}
	return t, nil
}
