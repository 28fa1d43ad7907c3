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

// Package tagdef identifies Gen2 tag chips from their TID memory using a
// bundled definition table. The table is loaded once per process; a missing
// or unknown entry is non-fatal, identification then simply lacks
// human-readable names.
package tagdef

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
)

//go:embed tag_definitions.json
var definitionsJSON []byte

// gen2ACI is the allocation class identifier of EPC Gen2 TIDs.
const gen2ACI = 0xE2

// Model describes one chip model from the definition table.
type Model struct {
	ModelName        string `json:"model_name"`
	EPCBits          int    `json:"epc_bits"`
	UserBits         int    `json:"user_bits"`
	ManufacturerName string `json:"-"`
}

// Manufacturer groups the models of one mask designer.
type Manufacturer struct {
	Name   string           `json:"name"`
	Models map[string]Model `json:"models"`
}

type definitions struct {
	Manufacturers map[string]Manufacturer `json:"manufacturers"`
}

var (
	loadOnce sync.Once
	defs     definitions
)

func load() {
	if err := json.Unmarshal(definitionsJSON, &defs); err != nil {
		log.Errorf("decoding tag definitions: %v", err)
		defs = definitions{Manufacturers: map[string]Manufacturer{}}
	}
}

// TID is the decoded fixed part of a Gen2 TID bank.
type TID struct {
	MaskDesignerID uint16
	ModelNumber    uint16
}

// ParseTID decodes the mask designer id and model number from the first four
// bytes of TID memory.
func ParseTID(tid []byte) (TID, error) {
	if len(tid) < 4 {
		return TID{}, fmt.Errorf("TID needs at least 4 bytes, got %d", len(tid))
	}
	if tid[0] != gen2ACI {
		return TID{}, fmt.Errorf("unknown TID allocation class 0x%02X", tid[0])
	}
	return TID{
		MaskDesignerID: uint16(tid[1])<<4 | uint16(tid[2])>>4,
		ModelNumber:    uint16(tid[2]&0x0F)<<8 | uint16(tid[3]),
	}, nil
}

// Identify looks the parsed TID up in the definition table. The second return
// is false when the chip is not in the table.
func Identify(t TID) (Model, bool) {
	loadOnce.Do(load)
	man, ok := defs.Manufacturers[strconv.Itoa(int(t.MaskDesignerID))]
	if !ok {
		return Model{}, false
	}
	model, ok := man.Models[strconv.Itoa(int(t.ModelNumber))]
	if !ok {
		return Model{ManufacturerName: man.Name}, false
	}
	model.ManufacturerName = man.Name
	return model, true
}

// IdentifyTID parses raw TID bytes and looks the chip up in one step.
func IdentifyTID(tid []byte) (Model, error) {
	t, err := ParseTID(tid)
	if err != nil {
		return Model{}, err
	}
	model, ok := Identify(t)
	if !ok {
		log.Debugf("no definition for mask designer %d model %d", t.MaskDesignerID, t.ModelNumber)
	}
	return model, nil
}
