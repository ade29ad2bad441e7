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
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

// CMOS register map, MC146818 and compatibles
const (
	cmosRegSeconds = 0x00
	cmosRegMinutes = 0x02
	cmosRegHours   = 0x04
	cmosRegWeekday = 0x06
	cmosRegDay     = 0x07
	cmosRegMonth   = 0x08
	cmosRegYear    = 0x09
	cmosRegStatusA = 0x0a
	cmosRegStatusB = 0x0b
	cmosRegCentury = 0x32

	// status A: update in progress
	cmosUIP = 0x80
	// status B: halt updates while setting
	cmosSet = 0x80
	// status B: 24 hour mode
	cmos24h = 0x02
	// status B: binary instead of BCD
	cmosBinary = 0x04
	// hours register: PM flag, only meaningful in 12 hour mode
	cmosHourPM = 0x80

	cmosAddrPort = 0x70
	cmosDataPort = 0x71

	// DefaultPortPath is the device exposing raw ISA port I/O
	DefaultPortPath = "/dev/port"
)

// cmosWriteDelay is how long a write takes to reach the seconds
// register: the chip restarts its divider chain half a second before
// the first update after a set.
const cmosWriteDelay = 500 * time.Millisecond

// CMOS drives the clock by addressing registers 0x70/0x71 on the ISA
// bus through a port I/O device file.
type CMOS struct {
	path string
	f    *os.File
}

// OpenCMOS opens the port I/O device used for register access
func OpenCMOS(path string) (*CMOS, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s for CMOS access: %w", path, err)
	}
	return &CMOS{path: path, f: f}, nil
}

// Name identifies the backend for logging
func (c *CMOS) Name() string {
	return "direct CMOS access via " + c.path
}

// CheckPermissions reports whether port I/O is possible. Opening the
// port device read-write already required root.
func (c *CMOS) CheckPermissions() error {
	if c.f == nil {
		return fmt.Errorf("%s is not open", c.path)
	}
	return nil
}

func (c *CMOS) readReg(reg byte) (byte, error) {
	if _, err := c.f.WriteAt([]byte{reg}, cmosAddrPort); err != nil {
		return 0, fmt.Errorf("selecting CMOS register %#02x: %w", reg, err)
	}
	buf := make([]byte, 1)
	if _, err := c.f.ReadAt(buf, cmosDataPort); err != nil {
		return 0, fmt.Errorf("reading CMOS register %#02x: %w", reg, err)
	}
	return buf[0], nil
}

func (c *CMOS) writeReg(reg, val byte) error {
	if _, err := c.f.WriteAt([]byte{reg}, cmosAddrPort); err != nil {
		return fmt.Errorf("selecting CMOS register %#02x: %w", reg, err)
	}
	if _, err := c.f.WriteAt([]byte{val}, cmosDataPort); err != nil {
		return fmt.Errorf("writing CMOS register %#02x: %w", reg, err)
	}
	return nil
}

type cmosSnapshot struct {
	sec, min, hour, wday, day, month, year, century, statusB byte
}

func (c *CMOS) snapshot() (s cmosSnapshot, err error) {
	regs := []struct {
		reg byte
		dst *byte
	}{
		{cmosRegSeconds, &s.sec},
		{cmosRegMinutes, &s.min},
		{cmosRegHours, &s.hour},
		{cmosRegWeekday, &s.wday},
		{cmosRegDay, &s.day},
		{cmosRegMonth, &s.month},
		{cmosRegYear, &s.year},
		{cmosRegCentury, &s.century},
		{cmosRegStatusB, &s.statusB},
	}
	for _, r := range regs {
		if *r.dst, err = c.readReg(r.reg); err != nil {
			return s, err
		}
	}
	return s, nil
}

// ReadTime reads the clock registers. The chip updates them once per
// second, so the read loops until two consecutive snapshots taken with
// the update-in-progress bit clear agree.
func (c *CMOS) ReadTime() (hwtime.BrokenTime, error) {
	if err := c.waitUIPClear(); err != nil {
		return hwtime.BrokenTime{}, err
	}
	prev, err := c.snapshot()
	if err != nil {
		return hwtime.BrokenTime{}, err
	}
	for {
		cur, err := c.snapshot()
		if err != nil {
			return hwtime.BrokenTime{}, err
		}
		if cur == prev {
			return decodeCmosTime(cur), nil
		}
		prev = cur
	}
}

func decodeCmosTime(s cmosSnapshot) hwtime.BrokenTime {
	dec := bcdToDec
	if s.statusB&cmosBinary != 0 {
		dec = func(b byte) int { return int(b) }
	}
	hour := dec(s.hour)
	if s.statusB&cmos24h == 0 {
		// 12 hour mode, hours run 1-12 with the PM flag on top
		hour = dec(s.hour&^cmosHourPM) % 12
		if s.hour&cmosHourPM != 0 {
			hour += 12
		}
	}
	year := dec(s.year)
	if century := dec(s.century); century >= 19 && century <= 30 {
		year += century * 100
	} else if year < 69 {
		year += 2000
	} else {
		year += 1900
	}
	return hwtime.BrokenTime{
		Year:    year,
		Month:   dec(s.month),
		Day:     dec(s.day),
		Hour:    hour,
		Minute:  dec(s.min),
		Second:  dec(s.sec),
		Weekday: dec(s.wday) - 1,
	}
}

// encodeCmosHour encodes an hour for the chip's current hour mode
func encodeCmosHour(statusB byte, enc func(int) byte, hour int) byte {
	if statusB&cmos24h != 0 {
		return enc(hour)
	}
	var pm byte
	if hour >= 12 {
		pm = cmosHourPM
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return enc(hour) | pm
}

// SetTime halts the divider chain, writes the calendar registers and
// restarts updates. The chip delivers its first update half a second
// after the restart, which is where WriteDelay comes from.
func (c *CMOS) SetTime(bt hwtime.BrokenTime) error {
	statusB, err := c.readReg(cmosRegStatusB)
	if err != nil {
		return err
	}
	enc := decToBCD
	if statusB&cmosBinary != 0 {
		enc = func(v int) byte { return byte(v) }
	}
	if err := c.writeReg(cmosRegStatusB, statusB|cmosSet); err != nil {
		return err
	}
	regs := []struct {
		reg byte
		val byte
	}{
		{cmosRegSeconds, enc(bt.Second)},
		{cmosRegMinutes, enc(bt.Minute)},
		{cmosRegHours, encodeCmosHour(statusB, enc, bt.Hour)},
		{cmosRegDay, enc(bt.Day)},
		{cmosRegMonth, enc(bt.Month)},
		{cmosRegYear, enc(bt.Year % 100)},
		{cmosRegCentury, enc(bt.Year / 100)},
	}
	var werr error
	for _, r := range regs {
		if err := c.writeReg(r.reg, r.val); err != nil {
			werr = err
			break
		}
	}
	// always restart updates, even after a failed register write
	if err := c.writeReg(cmosRegStatusB, statusB&^cmosSet); err != nil {
		return err
	}
	return werr
}

// SynchronizeToTick waits for the update-in-progress flag to rise and
// fall again, which brackets the seconds-edge of the chip.
func (c *CMOS) SynchronizeToTick(ctx context.Context) error {
	began := time.Now()
	seenUIP := false
	for time.Since(began) < busyWaitTimeout {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := c.readReg(cmosRegStatusA)
		if err != nil {
			return err
		}
		if a&cmosUIP != 0 {
			seenUIP = true
		} else if seenUIP {
			return nil
		}
	}
	log.Debug("CMOS update-in-progress flag never cycled")
	return fmt.Errorf("timed out waiting for CMOS clock tick")
}

// waitUIPClear waits for a window where the registers are stable
func (c *CMOS) waitUIPClear() error {
	began := time.Now()
	for time.Since(began) < busyWaitTimeout {
		a, err := c.readReg(cmosRegStatusA)
		if err != nil {
			return err
		}
		if a&cmosUIP == 0 {
			return nil
		}
	}
	return fmt.Errorf("CMOS clock update never finished")
}

// WriteDelay for direct CMOS access is half a second, the divider
// chain restart penalty.
func (c *CMOS) WriteDelay() time.Duration {
	return cmosWriteDelay
}

// Close releases the port device
func (c *CMOS) Close() error {
	return c.f.Close()
}
