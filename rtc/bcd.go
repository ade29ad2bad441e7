/*
Copyright (c) Facebook, Inc. and its affiliates.

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

package rtc

// bcdToDec decodes a packed binary-coded-decimal byte
func bcdToDec(b byte) int {
	return int(b&0x0f) + int(b>>4)*10
}

// decToBCD encodes a value in [0,99] as packed BCD
func decToBCD(v int) byte {
	return byte(v%10) | byte(v/10)<<4
}
