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

// Package drift implements the long-term drift model of the hardware
// clock: predicting accumulated drift from the persisted per-day rate
// and recalibrating that rate from observed deviations.
package drift

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openeuler-mirror/easybox-sub001/adjfile"
	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

const secondsPerDay = 86400.0

// MaxDriftFactor is the runaway guard: no physical clock drifts more
// than this many seconds per day, so a model beyond it is never
// trusted.
const MaxDriftFactor = 2145.0

// MinCalibrationInterval is the shortest observation window that gives
// a meaningful drift rate; deviations measured over less are noise.
const MinCalibrationInterval = 4 * time.Hour

// SetterFunc commits a whole-second value to the hardware clock at the
// right instant relative to the given system clock reference.
type SetterFunc func(setHwTime int64, refSysTime hwtime.Timeval) error

// CalculateAdjustment predicts how far the clock has drifted by
// observed (epoch seconds), given the stored rate and the residual
// left over from the previous adjustment.
func CalculateAdjustment(factor float64, lastAdj int64, notAdjusted float64, observed int64) hwtime.Timeval {
	exact := float64(observed-lastAdj)*factor/secondsPerDay + notAdjusted
	tv := hwtime.Increment(hwtime.Timeval{}, exact)
	log.Debugf("time elapsed since last adjustment is %d seconds, predicted drift is %s seconds",
		observed-lastAdj, tv)
	return tv
}

// AdjustDriftFactor folds an observed deviation between the hardware
// clock and the system clock into the drift rate. The rate only moves
// when recalibration was requested, there is calibration history, and
// the observation window is at least MinCalibrationInterval; the
// calibration stamps are refreshed and the record marked dirty either
// way, because the clock itself was just set.
func AdjustDriftFactor(rec *adjfile.Record, hwTime, now hwtime.Timeval, updateRequested bool) {
	switch {
	case !updateRequested:
		log.Debug("not adjusting drift factor because drift update was not requested")
	case rec.LastCalibTime == 0:
		log.Debug("not adjusting drift factor because the clock was previously in an unknown state")
	case hwtime.Diff(now, hwtime.Timeval{Sec: rec.LastCalibTime}) < MinCalibrationInterval.Seconds():
		log.Debug("not adjusting drift factor because not enough time has elapsed since the last calibration")
	default:
		days := hwtime.Diff(now, hwtime.Timeval{Sec: rec.LastCalibTime}) / secondsPerDay
		factorAdjust := hwtime.Diff(now, hwTime) / days
		newFactor := rec.DriftFactor + factorAdjust
		if math.Abs(newFactor) > MaxDriftFactor {
			log.Infof("clock drifted %f seconds in the past %f seconds "+
				"in spite of a drift factor of %f seconds/day; the resulting factor is absurd, resetting to zero",
				hwtime.Diff(now, hwTime), days*secondsPerDay, rec.DriftFactor)
			newFactor = 0.0
		} else {
			log.Debugf("adjusting drift factor by %f seconds/day", factorAdjust)
		}
		rec.DriftFactor = newFactor
	}
	rec.LastCalibTime = now.Sec
	rec.LastAdjTime = now.Sec
	rec.NotAdjusted = 0
	rec.Dirty = true
}

// DoAdjustment applies the predicted drift to the device by setting it
// to hwTime, the drift-corrected value, phase-referenced against the
// system time at which the hardware clock was read. Nothing happens
// without adjustment history or with a runaway drift factor.
func DoAdjustment(rec *adjfile.Record, hwTime, sysTime hwtime.Timeval, set SetterFunc) error {
	if rec.LastAdjTime == 0 {
		log.Info("not setting clock because last adjustment time is zero, so history is bad")
		return nil
	}
	if math.Abs(rec.DriftFactor) > MaxDriftFactor {
		log.Infof("not setting clock because drift factor %f is far too high", rec.DriftFactor)
		return nil
	}
	ref := hwtime.Increment(sysTime, -float64(hwTime.Usec)/hwtime.UsecPerSec)
	if err := set(hwTime.Sec, ref); err != nil {
		return err
	}
	rec.LastAdjTime = hwTime.Sec
	rec.NotAdjusted = 0
	rec.Dirty = true
	return nil
}
