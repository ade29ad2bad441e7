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
	"context"
	"time"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

// fakeClock is a synthetic monotonic system clock: every Now call
// returns the current value and advances it by step.
type fakeClock struct {
	now   hwtime.Timeval
	step  float64
	calls int
}

func (c *fakeClock) Now() (hwtime.Timeval, error) {
	c.calls++
	v := c.now
	c.now = hwtime.Increment(c.now, c.step)
	return v, nil
}

// scriptedClock replays an explicit sequence of readings, repeating
// the last one forever. Used to simulate backward jumps.
type scriptedClock struct {
	values []hwtime.Timeval
	idx    int
}

func (c *scriptedClock) Now() (hwtime.Timeval, error) {
	v := c.values[c.idx]
	if c.idx < len(c.values)-1 {
		c.idx++
	}
	return v, nil
}

// fakeDriver records every operation against the hardware clock
type fakeDriver struct {
	readVal  hwtime.BrokenTime
	readErr  error
	writeErr error
	permErr  error
	syncErr  error
	delay    time.Duration

	writes []hwtime.BrokenTime
	reads  int
	syncs  int
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) CheckPermissions() error { return d.permErr }

func (d *fakeDriver) WriteDelay() time.Duration { return d.delay }

func (d *fakeDriver) ReadTime() (hwtime.BrokenTime, error) {
	d.reads++
	return d.readVal, d.readErr
}

func (d *fakeDriver) SetTime(bt hwtime.BrokenTime) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.writes = append(d.writes, bt)
	return nil
}

func (d *fakeDriver) SynchronizeToTick(ctx context.Context) error {
	d.syncs++
	return d.syncErr
}

// fakeOSClock records system clock writes
type fakeOSClock struct {
	sets []hwtime.Timeval
	tzs  []bool
}

func (o *fakeOSClock) SetSystemClock(tv hwtime.Timeval, writeTimezone bool) error {
	o.sets = append(o.sets, tv)
	o.tzs = append(o.tzs, writeTimezone)
	return nil
}
