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
	"golang.org/x/sys/unix"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

// tickWaitTimeout bounds the wait for an update interrupt. The seconds
// register ticks once per second, so anything past a few seconds means
// the interrupt never arrives.
const tickWaitTimeout = 5 * time.Second

// busyWaitTimeout bounds the polling fallback to 1.5 tick periods
const busyWaitTimeout = 1500 * time.Millisecond

// DevRTC drives a hardware clock through the /dev/rtc character device
type DevRTC struct {
	path string
	f    *os.File
}

// OpenDevRTC opens the rtc device at path
func OpenDevRTC(path string) (*DevRTC, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return &DevRTC{path: path, f: f}, nil
}

// Name identifies the backend for logging
func (d *DevRTC) Name() string {
	return fmt.Sprintf("rtc device %s", d.path)
}

// CheckPermissions reports whether the device is accessible. Opening
// the device already proved read access, so only the fd is checked.
func (d *DevRTC) CheckPermissions() error {
	if d.f == nil {
		return fmt.Errorf("%s is not open", d.path)
	}
	return nil
}

// ReadTime reads the clock via the RTC_RD_TIME ioctl
func (d *DevRTC) ReadTime() (hwtime.BrokenTime, error) {
	rt, err := unix.IoctlGetRTCTime(int(d.f.Fd()))
	if err != nil {
		return hwtime.BrokenTime{}, fmt.Errorf("ioctl(RTC_RD_TIME) to %s failed: %w", d.path, err)
	}
	return hwtime.BrokenTime{
		Year:    int(rt.Year) + 1900,
		Month:   int(rt.Mon) + 1,
		Day:     int(rt.Mday),
		Hour:    int(rt.Hour),
		Minute:  int(rt.Min),
		Second:  int(rt.Sec),
		Weekday: int(rt.Wday),
		Yearday: int(rt.Yday),
	}, nil
}

// SetTime writes the clock via the RTC_SET_TIME ioctl
func (d *DevRTC) SetTime(bt hwtime.BrokenTime) error {
	rt := unix.RTCTime{
		Year: int32(bt.Year - 1900),
		Mon:  int32(bt.Month - 1),
		Mday: int32(bt.Day),
		Hour: int32(bt.Hour),
		Min:  int32(bt.Minute),
		Sec:  int32(bt.Second),
		Wday: int32(bt.Weekday),
		Yday: int32(bt.Yearday),
	}
	if err := unix.IoctlSetRTCTime(int(d.f.Fd()), &rt); err != nil {
		return fmt.Errorf("ioctl(RTC_SET_TIME) to %s failed: %w", d.path, err)
	}
	return nil
}

// SynchronizeToTick returns at a seconds-edge of the device. It arms
// update interrupts and blocks on the interrupt counter; kernels or
// chips without update interrupt support fall back to polling the
// seconds register.
func (d *DevRTC) SynchronizeToTick(ctx context.Context) error {
	fd := int(d.f.Fd())
	if err := unix.IoctlSetInt(fd, unix.RTC_UIE_ON, 0); err != nil {
		log.Debugf("ioctl(RTC_UIE_ON) to %s failed (%v), falling back to polling", d.path, err)
		return d.busyWaitForTick(ctx)
	}
	defer func() {
		if err := unix.IoctlSetInt(fd, unix.RTC_UIE_OFF, 0); err != nil {
			log.Warningf("ioctl(RTC_UIE_OFF) to %s failed: %v", d.path, err)
		}
	}()

	deadline := time.Now().Add(tickWaitTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		timeout := int(time.Until(deadline).Milliseconds())
		if timeout <= 0 {
			log.Debugf("update interrupt from %s never arrived, falling back to polling", d.path)
			return d.busyWaitForTick(ctx)
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("waiting for update interrupt from %s: %w", d.path, err)
		}
		if n == 0 {
			continue
		}
		// drain the interrupt counter, one unsigned long
		buf := make([]byte, 8)
		if _, err := unix.Read(fd, buf); err != nil {
			return fmt.Errorf("reading update interrupt from %s: %w", d.path, err)
		}
		return nil
	}
}

// busyWaitForTick re-reads the seconds register until it changes
func (d *DevRTC) busyWaitForTick(ctx context.Context) error {
	start, err := d.ReadTime()
	if err != nil {
		return err
	}
	began := time.Now()
	for time.Since(began) < busyWaitTimeout {
		if err := ctx.Err(); err != nil {
			return err
		}
		now, err := d.ReadTime()
		if err != nil {
			return err
		}
		if now.Second != start.Second {
			return nil
		}
	}
	return fmt.Errorf("timed out waiting for %s seconds register to tick", d.path)
}

// WriteDelay for the rtc device is zero: the kernel driver latches the
// written value at the next seconds boundary itself.
func (d *DevRTC) WriteDelay() time.Duration {
	return 0
}

// Close releases the device
func (d *DevRTC) Close() error {
	return d.f.Close()
}
