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

package tagdef

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTID(t *testing.T) {
	// Impinj (MDID 1) Monza R6 (TMN 430 = 0x1AE)
	tid, err := ParseTID([]byte{0xE2, 0x00, 0x11, 0xAE})
	require.NoError(t, err)
	require.Equal(t, uint16(1), tid.MaskDesignerID)
	require.Equal(t, uint16(430), tid.ModelNumber)
}

func TestParseTIDErrors(t *testing.T) {
	_, err := ParseTID([]byte{0xE2, 0x00})
	require.Error(t, err)
	_, err = ParseTID([]byte{0xE0, 0x00, 0x11, 0xAE})
	require.Error(t, err)
}

func TestIdentify(t *testing.T) {
	model, ok := Identify(TID{MaskDesignerID: 1, ModelNumber: 430})
	require.True(t, ok)
	require.Equal(t, "Monza R6", model.ModelName)
	require.Equal(t, "Impinj", model.ManufacturerName)

	// known manufacturer, unknown model
	model, ok = Identify(TID{MaskDesignerID: 1, ModelNumber: 9999})
	require.False(t, ok)
	require.Equal(t, "Impinj", model.ManufacturerName)

	// unknown manufacturer is non-fatal
	_, ok = Identify(TID{MaskDesignerID: 999, ModelNumber: 1})
	require.False(t, ok)
}

func TestIdentifyTID(t *testing.T) {
	model, err := IdentifyTID([]byte{0xE2, 0x00, 0x11, 0xAE, 0x12, 0x34})
	require.NoError(t, err)
	require.Equal(t, "Monza R6", model.ModelName)
}
