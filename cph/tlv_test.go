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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTLV(t *testing.T) {
	tag, value, consumed, err := ParseTLV([]byte{0x07, 0x01, 0x00, 0xFF})
	require.NoError(t, err)
	require.Equal(t, TagStatus, tag)
	require.Equal(t, []byte{0x00}, value)
	require.Equal(t, 3, consumed)
}

func TestParseTLVErrors(t *testing.T) {
	_, _, _, err := ParseTLV([]byte{0x07})
	require.ErrorIs(t, err, ErrShortHeader)

	_, _, _, err = ParseTLV([]byte{0x07, 0x05, 0x00})
	require.ErrorIs(t, err, ErrValueExceedsInput)
}

func TestBuildTLVBoundaries(t *testing.T) {
	// zero-length value
	raw, err := BuildTLV(TagStatus, nil)
	require.NoError(t, err)
	tag, value, consumed, err := ParseTLV(raw)
	require.NoError(t, err)
	require.Equal(t, TagStatus, tag)
	require.Empty(t, value)
	require.Equal(t, 2, consumed)

	// maximum 255-byte value
	big := bytes.Repeat([]byte{0xAB}, 255)
	raw, err = BuildTLV(TagUserData, big)
	require.NoError(t, err)
	tag, value, _, err = ParseTLV(raw)
	require.NoError(t, err)
	require.Equal(t, TagUserData, tag)
	require.Equal(t, big, value)

	_, err = BuildTLV(TagUserData, bytes.Repeat([]byte{0}, 256))
	require.ErrorIs(t, err, ErrValueTooLong)
}

func TestParseTLVSequenceRoundTrip(t *testing.T) {
	var region []byte
	for _, tlv := range [][2]interface{}{
		{TagUserData, []byte{0xDE, 0xAD}},
		{TagTIDData, []byte{0xE2, 0x00, 0x11, 0xAE}},
		{TagDeviceNo, []byte{0x42}},
	} {
		raw, err := BuildTLV(tlv[0].(Tag), tlv[1].([]byte))
		require.NoError(t, err)
		region = append(region, raw...)
	}
	vals, err := ParseTLVSequence(region)
	require.NoError(t, err)
	require.Len(t, vals, 3)
	require.Equal(t, []byte{0xDE, 0xAD}, vals[TagUserData])
	require.Equal(t, []byte{0xE2, 0x00, 0x11, 0xAE}, vals[TagTIDData])
	require.Equal(t, []byte{0x42}, vals[TagDeviceNo])
}

func TestParseTLVSequenceTrailingJunk(t *testing.T) {
	raw, err := BuildTLV(TagStatus, []byte{0x00})
	require.NoError(t, err)
	_, err = ParseTLVSequence(append(raw, 0x99))
	require.Error(t, err)
}

func TestParseTLVSequenceGetVersionResponse(t *testing.T) {
	region := mustHex(t, "0701002003040001210105")
	vals, err := ParseTLVSequence(region)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, vals[TagStatus])
	require.Equal(t, VersionInfo{Major: 4, Minor: 0, Revision: 1}, vals[TagSoftwareVersion])
	require.Equal(t, uint8(5), vals[TagDeviceType])
}

func TestParseTLVSequenceTypedLengthErrors(t *testing.T) {
	for _, region := range [][]byte{
		{byte(TagStatus), 0x02, 0x00, 0x00},
		{byte(TagSoftwareVersion), 0x02, 0x04, 0x00},
		{byte(TagDeviceType), 0x02, 0x05, 0x05},
		{byte(TagRSSI), 0x02, 0xC3, 0xC3},
		{byte(TagTime), 0x05, 1, 2, 3, 4, 5},
	} {
		_, err := ParseTLVSequence(region)
		require.ErrorIs(t, err, ErrInvalidTLVValue, "region % X", region)
	}
}

func TestDecodeTimeValues(t *testing.T) {
	vals, err := ParseTLVSequence([]byte{byte(TagTime), 7, 0x07, 0xE8, 6, 15, 12, 30, 45})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC), vals[TagTime])

	vals, err = ParseTLVSequence([]byte{byte(TagTime), 4, 0x3D, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, LegacyTime(0x3D000000), vals[TagTime])

	// calendar validation
	for _, v := range [][]byte{
		{0x07, 0xE8, 13, 15, 12, 30, 45},
		{0x07, 0xE8, 6, 32, 12, 30, 45},
		{0x07, 0xE8, 6, 15, 24, 30, 45},
		{0x07, 0xE8, 6, 15, 12, 60, 45},
		{0x07, 0xE8, 6, 15, 12, 30, 60},
	} {
		_, err := ParseTLVSequence(append([]byte{byte(TagTime), 7}, v...))
		require.ErrorIs(t, err, ErrInvalidTLVValue, "time % X", v)
	}
}

func TestDecodeSingleParameter(t *testing.T) {
	vals, err := ParseTLVSequence([]byte{byte(TagSingleParameter), 2, byte(ParamTypePower), 25})
	require.NoError(t, err)
	p := vals[TagSingleParameter].(SingleParameter)
	require.Equal(t, ParamTypePower, p.Type)
	require.Equal(t, uint8(25), p.PowerDBm)
	require.Equal(t, []byte{25}, p.Raw)

	vals, err = ParseTLVSequence([]byte{byte(TagSingleParameter), 2, byte(ParamTypeBuzzer), 1})
	require.NoError(t, err)
	require.True(t, vals[TagSingleParameter].(SingleParameter).BuzzerOn)

	vals, err = ParseTLVSequence([]byte{byte(TagSingleParameter), 5, byte(ParamTypeModem), 10, 20, 0x01, 0x00})
	require.NoError(t, err)
	p = vals[TagSingleParameter].(SingleParameter)
	require.Equal(t, uint8(10), p.MixerGain)
	require.Equal(t, uint8(20), p.IFAmpGain)
	require.Equal(t, uint16(256), p.Threshold)

	// wrong value width for the sub-type
	_, err = ParseTLVSequence([]byte{byte(TagSingleParameter), 3, byte(ParamTypePower), 25, 25})
	require.ErrorIs(t, err, ErrInvalidTLVValue)
}

func TestBuildPowerParameterTLV(t *testing.T) {
	raw, err := BuildPowerParameterTLV(25)
	require.NoError(t, err)
	require.Equal(t, []byte{0x26, 0x02, 0x01, 0x19}, raw)

	_, err = BuildPowerParameterTLV(31)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = BuildPowerParameterTLV(-1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildBuzzerAndFilterTLVs(t *testing.T) {
	raw, err := BuildBuzzerParameterTLV(true)
	require.NoError(t, err)
	require.Equal(t, []byte{0x26, 0x02, 0x02, 0x01}, raw)
	raw, err = BuildBuzzerParameterTLV(false)
	require.NoError(t, err)
	require.Equal(t, []byte{0x26, 0x02, 0x02, 0x00}, raw)

	raw, err = BuildFilterTimeParameterTLV(10)
	require.NoError(t, err)
	require.Equal(t, []byte{0x26, 0x02, 0x03, 0x0A}, raw)
	_, err = BuildFilterTimeParameterTLV(256)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOperationTLVRoundTrip(t *testing.T) {
	password := []byte{0x11, 0x22, 0x33, 0x44}
	data := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	raw, err := BuildOperationTLV(OpTypeWrite, uint8(MemBankUser), 0x0102, 2, password, data)
	require.NoError(t, err)

	vals, err := ParseTLVSequence(raw)
	require.NoError(t, err)
	op := vals[TagOperation].(Operation)
	require.Equal(t, password, op.Password[:])
	require.Equal(t, OpTypeWrite, op.Op)
	require.Equal(t, MemBankUser, op.Bank)
	require.Equal(t, uint16(0x0102), op.WordPtr)
	require.Equal(t, uint8(2), op.WordCount)
	require.Equal(t, data, op.Data)
}

func TestOperationTLVReadRoundTrip(t *testing.T) {
	raw, err := BuildOperationTLV(OpTypeRead, uint8(MemBankTID), 0, 4, []byte{0, 0, 0, 0}, nil)
	require.NoError(t, err)
	vals, err := ParseTLVSequence(raw)
	require.NoError(t, err)
	op := vals[TagOperation].(Operation)
	require.Equal(t, OpTypeRead, op.Op)
	require.Equal(t, MemBankTID, op.Bank)
	require.Equal(t, uint8(4), op.WordCount)
	require.Empty(t, op.Data)
}

func TestBuildOperationTLVValidation(t *testing.T) {
	// password length
	_, err := BuildOperationTLV(OpTypeRead, 0, 0, 1, []byte{1, 2, 3}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	// write data length mismatch
	_, err = BuildOperationTLV(OpTypeWrite, 0, 0, 2, []byte{0, 0, 0, 0}, []byte{1, 2})
	require.ErrorIs(t, err, ErrInvalidArgument)
	// data forbidden for non-write
	_, err = BuildOperationTLV(OpTypeRead, 0, 0, 1, []byte{0, 0, 0, 0}, []byte{1, 2})
	require.ErrorIs(t, err, ErrInvalidArgument)
	// word pointer range
	_, err = BuildOperationTLV(OpTypeRead, 0, 0x10000, 1, []byte{0, 0, 0, 0}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	// word count range
	_, err = BuildOperationTLV(OpTypeRead, 0, 0, 256, []byte{0, 0, 0, 0}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseTagUploadNotification(t *testing.T) {
	params := mustHex(t, "5017010CE2000017021701992390217D0501C306043D000000")
	vals, err := ParseTLVSequence(params)
	require.NoError(t, err)
	inner, ok := vals[TagSingleTag].(Values)
	require.True(t, ok)
	require.Equal(t, "E2000017021701992390217D", inner[TagEPC])
	require.Equal(t, int8(-61), inner[TagRSSI])
	require.Equal(t, LegacyTime(0x3D000000), inner[TagTime])

	tag, err := ParseTagNotification(params)
	require.NoError(t, err)
	require.Equal(t, "E2000017021701992390217D", tag.EPC)
	require.NotNil(t, tag.RSSI)
	require.Equal(t, int8(-61), *tag.RSSI)
	require.Nil(t, tag.Antenna)
	require.Nil(t, tag.Timestamp)
	require.Empty(t, tag.TID)
}

func TestParseTagNotificationWithAllFields(t *testing.T) {
	var inner []byte
	epc, err := BuildTLV(TagEPC, mustHex(t, "300833B2DDD9014000000000"))
	require.NoError(t, err)
	tid, err := BuildTLV(TagTIDData, mustHex(t, "E2001122"))
	require.NoError(t, err)
	user, err := BuildTLV(TagUserData, []byte{0xAA})
	require.NoError(t, err)
	rssi, err := BuildTLV(TagRSSI, []byte{0xB5})
	require.NoError(t, err)
	ant, err := BuildTLV(TagAntennaNo, []byte{2})
	require.NoError(t, err)
	ts, err := BuildTimeTLV(time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC))
	require.NoError(t, err)
	for _, piece := range [][]byte{epc, tid, user, rssi, ant, ts} {
		inner = append(inner, piece...)
	}
	params, err := BuildTLV(TagSingleTag, inner)
	require.NoError(t, err)

	tag, err := ParseTagNotification(params)
	require.NoError(t, err)
	require.Equal(t, "300833B2DDD9014000000000", tag.EPC)
	require.Equal(t, "E2001122", tag.TID)
	require.Equal(t, []byte{0xAA}, tag.UserData)
	require.Equal(t, int8(-75), *tag.RSSI)
	require.Equal(t, uint8(2), *tag.Antenna)
	require.Equal(t, time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC), *tag.Timestamp)
}

func TestParseTagNotificationMissingEPC(t *testing.T) {
	rssi, err := BuildTLV(TagRSSI, []byte{0xC3})
	require.NoError(t, err)
	params, err := BuildTLV(TagSingleTag, rssi)
	require.NoError(t, err)
	_, err = ParseTagNotification(params)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestBuildTimeTLVYearRange(t *testing.T) {
	_, err := BuildTimeTLV(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrInvalidArgument)
	raw, err := BuildTimeTLV(time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, []byte{byte(TagTime), 7, 0x07, 0xE8, 6, 15, 12, 30, 45}, raw)
}
