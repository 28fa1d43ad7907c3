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

	log "github.com/sirupsen/logrus"
)

// Single-parameter commands (set 0x48 / query 0x49).

// EncodeSetPowerRequest encodes the set-power request parameters.
func EncodeSetPowerRequest(powerDBm int) ([]byte, error) {
	return BuildPowerParameterTLV(powerDBm)
}

// EncodeSetBuzzerRequest encodes the set-buzzer request parameters.
func EncodeSetBuzzerRequest(on bool) ([]byte, error) {
	return BuildBuzzerParameterTLV(on)
}

// EncodeSetFilterTimeRequest encodes the set-filter-time request parameters.
func EncodeSetFilterTimeRequest(seconds int) ([]byte, error) {
	return BuildFilterTimeParameterTLV(seconds)
}

// EncodeQueryParameterRequest encodes a single-parameter query: the TLV value
// is the sub-type byte alone.
func EncodeQueryParameterRequest(paramType ParamType) ([]byte, error) {
	return BuildQueryParameterTLV(paramType)
}

// DecodeQueryParameterResponse extracts the echoed single parameter from a
// parsed query response and checks the sub-type matches the one requested.
func DecodeQueryParameterResponse(paramType ParamType, vals Values) (SingleParameter, error) {
	v, ok := vals[TagSingleParameter]
	if !ok {
		return SingleParameter{}, fmt.Errorf("%w: single-parameter TLV (0x26) missing in query response for type 0x%02X", ErrProtocol, uint8(paramType))
	}
	p, ok := v.(SingleParameter)
	if !ok {
		return SingleParameter{}, fmt.Errorf("%w: unexpected single-parameter value %v", ErrProtocol, v)
	}
	if p.Type != paramType {
		log.Warnf("parameter type mismatch in single param response: expected 0x%02X, got 0x%02X", uint8(paramType), uint8(p.Type))
	}
	return p, nil
}

// DecodeGetPowerResponse returns the RF power in dBm from a power query response.
func DecodeGetPowerResponse(vals Values) (int, error) {
	p, err := DecodeQueryParameterResponse(ParamTypePower, vals)
	if err != nil {
		return 0, err
	}
	return int(p.PowerDBm), nil
}

// DecodeGetBuzzerResponse returns the buzzer state from a buzzer query response.
func DecodeGetBuzzerResponse(vals Values) (bool, error) {
	p, err := DecodeQueryParameterResponse(ParamTypeBuzzer, vals)
	if err != nil {
		return false, err
	}
	return p.BuzzerOn, nil
}

// DecodeGetFilterTimeResponse returns the filter time in seconds from a
// filter-time query response.
func DecodeGetFilterTimeResponse(vals Values) (int, error) {
	p, err := DecodeQueryParameterResponse(ParamTypeTagFilterTime, vals)
	if err != nil {
		return 0, err
	}
	return int(p.FilterTime), nil
}

// Complex parameter blocks. Set commands wrap the encoded block in its
// designated TLV; query responses are unwrapped the same way.

func encodeParamBlock(tag Tag, block interface{ MarshalBinary() ([]byte, error) }) ([]byte, error) {
	b, err := block.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return BuildTLV(tag, b)
}

func decodeParamBlock(tag Tag, vals Values, block interface{ UnmarshalBinary([]byte) error }, what string) error {
	v, ok := vals[tag]
	if !ok {
		return fmt.Errorf("%w: %s TLV (0x%02X) missing in response", ErrProtocol, what, uint8(tag))
	}
	raw, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("%w: unexpected %s value %v", ErrProtocol, what, v)
	}
	return block.UnmarshalBinary(raw)
}

// EncodeSetExtParamsRequest encodes the set-ext-params request parameters.
func EncodeSetExtParamsRequest(p ExtParams) ([]byte, error) {
	return encodeParamBlock(TagExtParam, &p)
}

// DecodeGetExtParamsResponse extracts the ext parameter block from a parsed response.
func DecodeGetExtParamsResponse(vals Values) (ExtParams, error) {
	var p ExtParams
	err := decodeParamBlock(TagExtParam, vals, &p, "ext params")
	return p, err
}

// EncodeSetWorkingParamsRequest encodes the set-working-params request parameters.
func EncodeSetWorkingParamsRequest(p WorkingParams) ([]byte, error) {
	return encodeParamBlock(TagWorkingParam, &p)
}

// DecodeGetWorkingParamsResponse extracts the working parameter block from a
// parsed response.
func DecodeGetWorkingParamsResponse(vals Values) (WorkingParams, error) {
	var p WorkingParams
	err := decodeParamBlock(TagWorkingParam, vals, &p, "working params")
	return p, err
}

// EncodeSetTransportParamsRequest encodes the set-transport-params request parameters.
func EncodeSetTransportParamsRequest(p TransportParams) ([]byte, error) {
	return encodeParamBlock(TagTransportParam, &p)
}

// DecodeGetTransportParamsResponse extracts the transport parameter block
// from a parsed response.
func DecodeGetTransportParamsResponse(vals Values) (TransportParams, error) {
	var p TransportParams
	err := decodeParamBlock(TagTransportParam, vals, &p, "transport params")
	return p, err
}

// EncodeSetAdvanceParamsRequest encodes the set-advance-params request parameters.
func EncodeSetAdvanceParamsRequest(p AdvanceParams) ([]byte, error) {
	return encodeParamBlock(TagAdvanceParam, &p)
}

// DecodeGetAdvanceParamsResponse extracts the advance parameter block from a
// parsed response.
func DecodeGetAdvanceParamsResponse(vals Values) (AdvanceParams, error) {
	var p AdvanceParams
	err := decodeParamBlock(TagAdvanceParam, vals, &p, "advance params")
	return p, err
}

// EncodeSetUsbDataParamsRequest encodes the set-USB-data request parameters.
func EncodeSetUsbDataParamsRequest(p UsbDataParams) ([]byte, error) {
	return encodeParamBlock(TagUsbDataParam, &p)
}

// DecodeGetUsbDataParamsResponse extracts the USB data parameter block from a
// parsed response.
func DecodeGetUsbDataParamsResponse(vals Values) (UsbDataParams, error) {
	var p UsbDataParams
	err := decodeParamBlock(TagUsbDataParam, vals, &p, "USB data params")
	return p, err
}

// EncodeSetDataFlagParamsRequest encodes the set-data-flag request parameters.
func EncodeSetDataFlagParamsRequest(p DataFlagParams) ([]byte, error) {
	return encodeParamBlock(TagDataFlagParam, &p)
}

// DecodeGetDataFlagParamsResponse extracts the data flag parameter block from
// a parsed response.
func DecodeGetDataFlagParamsResponse(vals Values) (DataFlagParams, error) {
	var p DataFlagParams
	err := decodeParamBlock(TagDataFlagParam, vals, &p, "data flag params")
	return p, err
}
