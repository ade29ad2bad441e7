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

// Package hwclock orchestrates the hardware clock operating modes on
// top of the driver, the drift model and the persisted adjtime record.
package hwclock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openeuler-mirror/easybox-sub001/adjfile"
	"github.com/openeuler-mirror/easybox-sub001/drift"
	"github.com/openeuler-mirror/easybox-sub001/hwtime"
	"github.com/openeuler-mirror/easybox-sub001/rtc"
)

// displayFormat matches the traditional hwclock output
const displayFormat = "2006-01-02 15:04:05.000000-07:00"

// defaultWriteDelay is the last-resort write delay estimate when
// neither the caller nor the driver provides one
const defaultWriteDelay = 0.5

// Mode is the user-visible operating mode, exactly one per run
type Mode int

// Operating modes
const (
	ModeShow Mode = iota
	ModeGet
	ModeSet
	ModeHctosys
	ModeSystohc
	ModeSystz
	ModeAdjust
	ModePredict
)

func (m Mode) String() string {
	switch m {
	case ModeShow:
		return "show"
	case ModeGet:
		return "get"
	case ModeSet:
		return "set"
	case ModeHctosys:
		return "hctosys"
	case ModeSystohc:
		return "systohc"
	case ModeSystz:
		return "systz"
	case ModeAdjust:
		return "adjust"
	case ModePredict:
		return "predict"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// HwZone says which timescale the hardware clock keeps
type HwZone int

// Timescale resolutions
const (
	// ZoneAuto decides from the adjtime tag, defaulting to UTC
	ZoneAuto HwZone = iota
	ZoneUTC
	ZoneLocal
)

// Config is the immutable run configuration, resolved once by the
// caller before the controller starts.
type Config struct {
	Mode Mode
	Zone HwZone
	// UpdateDrift gates drift factor recalibration after a set
	UpdateDrift bool
	// NoAdjfile disables the adjtime store entirely
	NoAdjfile bool
	// TestMode performs all computation and logging but skips every
	// device and system write
	TestMode bool
	// Delay overrides the driver's write delay estimate, in seconds
	Delay *float64
	// SetTime is the target for the set and predict modes
	SetTime *hwtime.Timeval
}

// Controller runs one operating mode against a selected driver. The
// zero values of Clock, OSClock and Out are filled in by New; tests
// substitute fakes.
type Controller struct {
	Config  Config
	Driver  rtc.Driver
	Store   *adjfile.Store
	Clock   Clock
	OSClock OSClock
	Out     io.Writer
}

// New wires a controller with production clock sources
func New(cfg Config, drv rtc.Driver, store *adjfile.Store) *Controller {
	return &Controller{
		Config: cfg,
		Driver: drv,
		Store:  store,
		Clock:  SystemClock{},
		Out:    os.Stdout,
	}
}

// Run executes the configured mode
func (c *Controller) Run(ctx context.Context) error {
	startup, err := c.Clock.Now()
	if err != nil {
		return err
	}

	useAdjfile := !c.Config.NoAdjfile && c.Config.Mode != ModeSystz
	rec := &adjfile.Record{}
	if useAdjfile {
		if rec, err = c.Store.Load(); err != nil {
			return err
		}
	} else if c.Config.Mode == ModeSystz && !c.Config.NoAdjfile && c.Store != nil {
		// systz only consults the timescale tag; without a usable
		// record the UTC default applies
		if loaded, err := c.Store.Load(); err == nil {
			rec = loaded
		} else {
			log.Debugf("not using %s for timescale resolution: %v", c.Store.Path, err)
		}
	}

	utc := c.resolveUTC(rec)
	loc := time.UTC
	if !utc {
		loc = time.Local
	}
	if c.OSClock == nil {
		c.OSClock = KernelClock{HardwareIsUTC: utc}
	}
	log.Debugf("mode %s, assuming hardware clock is kept in %s time", c.Config.Mode, map[bool]string{true: "UTC", false: "local"}[utc])

	switch c.Config.Mode {
	case ModePredict:
		return c.predict(rec, loc)
	case ModeSystz:
		if c.Config.TestMode {
			log.Info("test mode: system clock was not set")
			return nil
		}
		return c.OSClock.SetSystemClock(startup, true)
	}

	if c.Driver == nil {
		return rtc.ErrNoClock
	}
	if err := c.Driver.CheckPermissions(); err != nil {
		return fmt.Errorf("cannot access the hardware clock: %w", err)
	}

	// modes that need the hardware value read it once, right after a
	// tick edge so the sub-second phase of the device is known
	needsHw := false
	switch c.Config.Mode {
	case ModeShow, ModeGet, ModeAdjust, ModeHctosys:
		needsHw = true
	case ModeSystohc:
		needsHw = useAdjfile
	case ModeSet:
		needsHw = useAdjfile && c.Config.UpdateDrift
	}

	var hclock, readSys, driftTv, corrected hwtime.Timeval
	if needsHw {
		if err := c.Driver.SynchronizeToTick(ctx); err != nil {
			return fmt.Errorf("synchronizing to hardware clock tick: %w", err)
		}
		if readSys, err = c.Clock.Now(); err != nil {
			return err
		}
		bt, err := c.Driver.ReadTime()
		if err != nil {
			return fmt.Errorf("reading hardware clock: %w", err)
		}
		if hclock, err = bt.Timeval(loc); err != nil {
			return err
		}
		driftTv = drift.CalculateAdjustment(rec.DriftFactor, rec.LastAdjTime, rec.NotAdjusted, hclock.Sec)
		corrected = hwtime.Add(hclock, driftTv)
	}

	switch c.Config.Mode {
	case ModeShow:
		err = c.display(hclock, readSys, startup, loc)
	case ModeGet:
		err = c.display(corrected, readSys, startup, loc)
	case ModeSet:
		err = c.set(ctx, rec, corrected, readSys, startup, loc, useAdjfile, needsHw)
	case ModeAdjust:
		err = c.adjust(ctx, rec, corrected, driftTv, readSys, loc)
	case ModeSystohc:
		err = c.systohc(ctx, rec, corrected, readSys, startup, loc, useAdjfile)
	case ModeHctosys:
		err = c.hctosys(corrected, readSys)
	}
	if err != nil {
		return err
	}

	switch c.Config.Mode {
	case ModeSet, ModeAdjust, ModeSystohc, ModeHctosys:
		if !useAdjfile {
			return nil
		}
		want := adjfile.TimescaleUTC
		if !utc {
			want = adjfile.TimescaleLocal
		}
		if c.Config.Mode != ModeHctosys && rec.Timescale != want {
			rec.Timescale = want
			rec.Dirty = true
		}
		if c.Config.TestMode {
			if rec.Dirty {
				log.Infof("test mode: %s was not updated", c.Store.Path)
			}
			return nil
		}
		// the hardware write already happened, a failed save only costs
		// model accuracy and is reported without rolling anything back
		if err := c.Store.Save(rec); err != nil {
			log.Errorf("drift record not saved: %v", err)
		}
	}
	return nil
}

func (c *Controller) resolveUTC(rec *adjfile.Record) bool {
	switch c.Config.Zone {
	case ZoneUTC:
		return true
	case ZoneLocal:
		return false
	default:
		return rec.Timescale != adjfile.TimescaleLocal
	}
}

func (c *Controller) delay() float64 {
	if c.Config.Delay != nil {
		return *c.Config.Delay
	}
	if c.Driver != nil {
		return c.Driver.WriteDelay().Seconds()
	}
	return defaultWriteDelay
}

// display prints the given hardware value projected to the present:
// the read value is first re-referenced to process startup, then moved
// forward by however long the run has taken, so the output reflects
// "now" rather than "when we happened to read it".
func (c *Controller) display(hw, readSys, startup hwtime.Timeval, loc *time.Location) error {
	startupHw := hwtime.Increment(hw, hwtime.Diff(startup, readSys))
	now, err := c.Clock.Now()
	if err != nil {
		return err
	}
	shown := hwtime.Increment(startupHw, hwtime.Diff(now, startup))
	_, err = fmt.Fprintln(c.Out, shown.Time(loc).Format(displayFormat))
	return err
}

func (c *Controller) predict(rec *adjfile.Record, loc *time.Location) error {
	if c.Config.SetTime == nil {
		return errors.New("no date given to predict for")
	}
	driftTv := drift.CalculateAdjustment(rec.DriftFactor, rec.LastAdjTime, rec.NotAdjusted, c.Config.SetTime.Sec)
	predicted := hwtime.Add(hwtime.Timeval{Sec: c.Config.SetTime.Sec}, driftTv)
	_, err := fmt.Fprintln(c.Out, predicted.Time(loc).Format(displayFormat))
	return err
}

// set takes corrected, the drift-corrected hardware read: the factor
// update is incremental, so the deviation fed to it must exclude the
// drift the model already accounts for.
func (c *Controller) set(ctx context.Context, rec *adjfile.Record, corrected, readSys, startup hwtime.Timeval, loc *time.Location, useAdjfile, haveHw bool) error {
	if c.Config.SetTime == nil {
		return errors.New("no date given to set")
	}
	err := SetHardwareClockExact(ctx, c.Driver, c.Clock, c.Config.SetTime.Sec, startup, c.delay(), loc, c.Config.TestMode)
	if err != nil {
		return err
	}
	if useAdjfile {
		startupHw := hwtime.Increment(corrected, hwtime.Diff(startup, readSys))
		drift.AdjustDriftFactor(rec, startupHw, *c.Config.SetTime, c.Config.UpdateDrift && haveHw)
	}
	return nil
}

func (c *Controller) adjust(ctx context.Context, rec *adjfile.Record, corrected, driftTv, readSys hwtime.Timeval, loc *time.Location) error {
	// sub-second predicted drift is reported but left alone, correcting
	// it would chase measurement noise
	if driftTv.Sec > 0 || driftTv.Sec < -1 {
		return drift.DoAdjustment(rec, corrected, readSys, func(sec int64, ref hwtime.Timeval) error {
			return SetHardwareClockExact(ctx, c.Driver, c.Clock, sec, ref, c.delay(), loc, c.Config.TestMode)
		})
	}
	log.Info("needed adjustment is less than one second, so not setting clock")
	_, err := fmt.Fprintln(c.Out, "Needed adjustment is less than one second, so not setting clock.")
	return err
}

// systohc recalibrates against the drift-corrected hardware read for
// the same reason set does.
func (c *Controller) systohc(ctx context.Context, rec *adjfile.Record, corrected, readSys, startup hwtime.Timeval, loc *time.Location, useAdjfile bool) error {
	nowSys, err := c.Clock.Now()
	if err != nil {
		return err
	}
	ref := hwtime.Timeval{Sec: nowSys.Sec}
	if err := SetHardwareClockExact(ctx, c.Driver, c.Clock, nowSys.Sec, ref, c.delay(), loc, c.Config.TestMode); err != nil {
		return err
	}
	if useAdjfile {
		startupHw := hwtime.Increment(corrected, hwtime.Diff(startup, readSys))
		drift.AdjustDriftFactor(rec, startupHw, nowSys, c.Config.UpdateDrift)
	}
	return nil
}

func (c *Controller) hctosys(corrected, readSys hwtime.Timeval) error {
	now, err := c.Clock.Now()
	if err != nil {
		return err
	}
	target := hwtime.Increment(corrected, hwtime.Diff(now, readSys))
	if c.Config.TestMode {
		log.Infof("test mode: system clock was not set to %s", target)
		return nil
	}
	return c.OSClock.SetSystemClock(target, false)
}
