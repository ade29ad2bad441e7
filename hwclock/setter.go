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
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
	"github.com/openeuler-mirror/easybox-sub001/rtc"
)

// initialTolerance is how close to the target instant the write has to
// land on the first attempt. Each missed window widens the acceptable
// slop geometrically so the loop always converges.
const initialTolerance = 0.001

// SetHardwareClockExact writes setHwTime, a whole-second hardware
// clock value, to the device as close as possible to refSysTime+delay
// on the system clock. The loop never sleeps: sleeping would lose the
// phase lock between the write and the device's internal tick. A
// backward system clock jump is logged and survived, the target is
// re-derived from the next read.
func SetHardwareClockExact(ctx context.Context, drv rtc.Driver, clk Clock, setHwTime int64, refSysTime hwtime.Timeval, delay float64, loc *time.Location, testMode bool) error {
	tolerance := initialTolerance
	toleranceIncr := initialTolerance
	target := hwtime.Increment(refSysTime, delay)

	prev, err := clk.Now()
	if err != nil {
		return err
	}
	var now hwtime.Timeval
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("waiting for target instant: %w", err)
		}
		now, err = clk.Now()
		if err != nil {
			return err
		}
		delta := hwtime.Diff(now, target)
		ticksize := hwtime.Diff(now, prev)
		prev = now

		if ticksize < 0 {
			log.Debugf("time jumped backward %f seconds to %s", ticksize, now)
			continue
		}
		if delta < 0 {
			// not there yet, keep spinning
			continue
		}
		if delta <= tolerance {
			break
		}
		// missed the window, accept more slop and aim for the next
		// whole second boundary
		tolerance += toleranceIncr
		toleranceIncr *= 2
		target.Sec = now.Sec
		if now.Usec >= target.Usec {
			target.Sec++
		}
		log.Debugf("missed the target instant by %f seconds, re-targeting %s with tolerance %f", delta, target, tolerance)
	}

	// the loop may have slipped past whole seconds of the reference, so
	// the value actually written advances by the elapsed amount
	newHwSec := setHwTime + int64(math.Ceil(hwtime.Diff(now, refSysTime)-delay))
	bt := hwtime.BreakDown(hwtime.Timeval{Sec: newHwSec}, loc)
	log.Debugf("setting hardware clock to %s = %d seconds since the epoch", bt, newHwSec)
	if testMode {
		log.Info("test mode: hardware clock was not set")
		return nil
	}
	if err := drv.SetTime(bt); err != nil {
		return fmt.Errorf("setting hardware clock: %w", err)
	}
	return nil
}
