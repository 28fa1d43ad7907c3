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

// rfidctl talks to CPH UHF RFID readers: device info, inventory, tag memory,
// parameter blocks and utility operations over TCP, UDP or serial.
package main

import "github.com/aaamil13/uhf-rfid-sdk/cmd/rfidctl/cmd"

func main() {
	cmd.Execute()
}
