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

// Package adjfile reads and writes the adjtime file, the persisted
// drift-correction state of the hardware clock. The format is three
// lines of plain text and has to stay byte compatible with what other
// tools reading /etc/adjtime expect.
package adjfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed means the adjtime file contents could not be parsed
var ErrMalformed = errors.New("malformed adjtime file")

// DefaultPath is where the drift record normally lives
const DefaultPath = "/etc/adjtime"

// Timescale is the tag on line 3 saying which timescale the hardware
// clock is kept in
type Timescale int

// Known timescale tags. Anything unrecognized parses as Unknown and is
// normalized back to UTC when saved.
const (
	TimescaleUnknown Timescale = iota
	TimescaleUTC
	TimescaleLocal
)

func (t Timescale) String() string {
	switch t {
	case TimescaleUTC:
		return "UTC"
	case TimescaleLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Record is the persisted drift-correction state
type Record struct {
	// DriftFactor is the systematic error of the clock in seconds per day
	DriftFactor float64
	// LastAdjTime is when drift was last folded into the clock, epoch seconds
	LastAdjTime int64
	// NotAdjusted is the residual drift left unapplied at the last adjustment
	NotAdjusted float64
	// LastCalibTime is when the drift factor was last recomputed, epoch seconds
	LastCalibTime int64
	// Timescale is the line 3 tag
	Timescale Timescale
	// Dirty is set whenever any field changes, checked before saving
	Dirty bool
}

// Parse decodes adjtime file contents. Line 1 must split on single
// spaces into exactly three numeric tokens; line 3 is read as Unknown
// for anything that is not UTC or LOCAL, without raising an error.
// Content past line 3 is ignored.
func Parse(data []byte) (*Record, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 1 || lines[0] == "" {
		return nil, fmt.Errorf("%w: no content", ErrMalformed)
	}
	r := &Record{}

	tokens := strings.Split(lines[0], " ")
	if len(tokens) != 3 {
		return nil, fmt.Errorf("%w: line 1 has %d fields, expected 3", ErrMalformed, len(tokens))
	}
	var err error
	if r.DriftFactor, err = strconv.ParseFloat(tokens[0], 64); err != nil {
		return nil, fmt.Errorf("%w: bad drift factor %q", ErrMalformed, tokens[0])
	}
	if r.LastAdjTime, err = strconv.ParseInt(tokens[1], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: bad last adjustment time %q", ErrMalformed, tokens[1])
	}
	if r.NotAdjusted, err = strconv.ParseFloat(tokens[2], 64); err != nil {
		return nil, fmt.Errorf("%w: bad residual %q", ErrMalformed, tokens[2])
	}

	if len(lines) > 1 {
		// historical readers tolerate a missing or garbled line 2
		if v, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64); err == nil {
			r.LastCalibTime = v
		}
	}
	if len(lines) > 2 {
		switch strings.TrimSpace(lines[2]) {
		case "UTC":
			r.Timescale = TimescaleUTC
		case "LOCAL":
			r.Timescale = TimescaleLocal
		default:
			r.Timescale = TimescaleUnknown
		}
	}
	return r, nil
}

// Format serializes the record. The drift factor always carries six
// decimal places and the tag is written as LOCAL only when the stored
// tag is Local; Unknown deliberately round-trips to UTC.
func (r *Record) Format() []byte {
	tag := "UTC"
	if r.Timescale == TimescaleLocal {
		tag = "LOCAL"
	}
	return []byte(fmt.Sprintf("%f %d %f\n%d\n%s\n",
		r.DriftFactor, r.LastAdjTime, r.NotAdjusted, r.LastCalibTime, tag))
}
