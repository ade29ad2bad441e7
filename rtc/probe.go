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

import (
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// defaultDevices are tried in order when no device path is given
var defaultDevices = []string{"/dev/rtc0", "/dev/rtc", "/dev/misc/rtc"}

// isaArch reports whether the machine has an ISA bus to poke at
func isaArch() bool {
	return runtime.GOARCH == "amd64" || runtime.GOARCH == "386"
}

// Probe selects the hardware backend for this run. The rtc device is
// preferred; direct CMOS access is used only when asked for explicitly
// or when no device file exists on an ISA machine. Selection happens
// exactly once, the returned driver is held for the whole run.
func Probe(devicePath string, directISA bool) (Driver, error) {
	if directISA {
		if !isaArch() {
			return nil, fmt.Errorf("%w: direct ISA access is not possible on %s", ErrNoClock, runtime.GOARCH)
		}
		return OpenCMOS(DefaultPortPath)
	}
	candidates := defaultDevices
	if devicePath != "" {
		candidates = []string{devicePath}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			log.Debugf("no rtc device at %s", path)
			continue
		}
		d, err := OpenDevRTC(path)
		if err != nil {
			log.Debugf("cannot use %s: %v", path, err)
			continue
		}
		log.Debugf("using %s", d.Name())
		return d, nil
	}
	if devicePath == "" && isaArch() {
		if d, err := OpenCMOS(DefaultPortPath); err == nil {
			log.Debugf("using %s", d.Name())
			return d, nil
		}
	}
	return nil, ErrNoClock
}
