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

package hwclock

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultsPath is where site defaults are looked up
const DefaultsPath = "/etc/hwclock.yaml"

// Defaults are optional site-wide defaults. Flags always win over
// anything set here.
type Defaults struct {
	// Device is the rtc device path to use
	Device string `yaml:"device"`
	// Adjfile is where the drift record lives
	Adjfile string `yaml:"adjfile"`
	// Delay overrides the write delay estimate, in seconds
	Delay *float64 `yaml:"delay"`
	// LockAdjfile serializes concurrent runs through a lock file
	LockAdjfile bool `yaml:"lock_adjfile"`
}

// LoadDefaults reads site defaults from path. A missing file is not an
// error, it just means zero defaults.
func LoadDefaults(path string) (*Defaults, error) {
	d := &Defaults{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}
