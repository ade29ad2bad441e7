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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openeuler-mirror/easybox-sub001/adjfile"
	"github.com/openeuler-mirror/easybox-sub001/hwclock"
	"github.com/openeuler-mirror/easybox-sub001/rtc"
)

// RootCmd is the main entry point. hwclock has no subcommands, the
// operating mode is selected by flags.
var RootCmd = &cobra.Command{
	Use:   "hwclock",
	Short: "query and set the hardware clock",
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigureVerbosity()
		return run(cmd)
	},
	SilenceUsage: true,
}

var (
	verbose bool

	showFlag    bool
	getFlag     bool
	setFlag     bool
	hctosysFlag bool
	systohcFlag bool
	systzFlag   bool
	adjustFlag  bool
	predictFlag bool

	utcFlag       bool
	localtimeFlag bool
	updateDrift   bool
	noAdjfile     bool
	testMode      bool
	dateFlag      string
	adjfilePath   string
	rtcDevice     string
	directISA     bool
	delayFlag     float64
)

func init() {
	f := RootCmd.Flags()
	f.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	f.BoolVarP(&showFlag, "show", "r", false, "display the hardware clock time")
	f.BoolVar(&getFlag, "get", false, "display the drift-corrected hardware clock time")
	f.BoolVar(&setFlag, "set", false, "set the hardware clock to the time given with --date")
	f.BoolVarP(&hctosysFlag, "hctosys", "s", false, "set the system clock from the hardware clock")
	f.BoolVarP(&systohcFlag, "systohc", "w", false, "set the hardware clock from the system clock")
	f.BoolVar(&systzFlag, "systz", false, "set the system clock timezone from the current timezone")
	f.BoolVarP(&adjustFlag, "adjust", "a", false, "adjust the hardware clock for accumulated drift")
	f.BoolVar(&predictFlag, "predict", false, "predict the drifted hardware clock reading at the time given with --date")

	f.BoolVarP(&utcFlag, "utc", "u", false, "the hardware clock is kept in UTC")
	f.BoolVarP(&localtimeFlag, "localtime", "l", false, "the hardware clock is kept in local time")
	f.BoolVar(&updateDrift, "update-drift", false, "recalculate the drift factor when setting the clock")
	f.BoolVar(&noAdjfile, "noadjfile", false, "do not read or write the adjtime file")
	f.BoolVar(&testMode, "test", false, "do everything except actually updating any clock")
	f.StringVar(&dateFlag, "date", "", "time to set or predict for")
	f.StringVar(&adjfilePath, "adjfile", "", "override the default adjtime file")
	f.StringVarP(&rtcDevice, "rtc", "f", "", "rtc device to use instead of the default")
	f.BoolVar(&directISA, "directisa", false, "access the ISA bus directly instead of an rtc device")
	f.Float64Var(&delayFlag, "delay", 0, "delay in seconds to assume between writing and the clock taking the value")
}

// ConfigureVerbosity configures log verbosity based on parsed flags
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

func resolveMode() (hwclock.Mode, error) {
	selected := []hwclock.Mode{}
	for _, m := range []struct {
		flag bool
		mode hwclock.Mode
	}{
		{showFlag, hwclock.ModeShow},
		{getFlag, hwclock.ModeGet},
		{setFlag, hwclock.ModeSet},
		{hctosysFlag, hwclock.ModeHctosys},
		{systohcFlag, hwclock.ModeSystohc},
		{systzFlag, hwclock.ModeSystz},
		{adjustFlag, hwclock.ModeAdjust},
		{predictFlag, hwclock.ModePredict},
	} {
		if m.flag {
			selected = append(selected, m.mode)
		}
	}
	switch len(selected) {
	case 0:
		// traditional default
		return hwclock.ModeShow, nil
	case 1:
		return selected[0], nil
	default:
		return 0, fmt.Errorf("only one operating mode may be given, got %v", selected)
	}
}

func resolveZone() (hwclock.HwZone, error) {
	if utcFlag && localtimeFlag {
		return 0, errors.New("--utc and --localtime are mutually exclusive")
	}
	if utcFlag {
		return hwclock.ZoneUTC, nil
	}
	if localtimeFlag {
		return hwclock.ZoneLocal, nil
	}
	return hwclock.ZoneAuto, nil
}

func run(cmd *cobra.Command) error {
	mode, err := resolveMode()
	if err != nil {
		return err
	}
	zone, err := resolveZone()
	if err != nil {
		return err
	}
	defaults, err := hwclock.LoadDefaults(hwclock.DefaultsPath)
	if err != nil {
		return err
	}

	cfg := hwclock.Config{
		Mode:        mode,
		Zone:        zone,
		UpdateDrift: updateDrift,
		NoAdjfile:   noAdjfile,
		TestMode:    testMode,
	}
	if cmd.Flags().Changed("delay") {
		cfg.Delay = &delayFlag
	} else if defaults.Delay != nil {
		cfg.Delay = defaults.Delay
	}
	if mode == hwclock.ModeSet || mode == hwclock.ModePredict {
		if dateFlag == "" {
			return fmt.Errorf("--%s requires --date", mode)
		}
		loc := time.Local
		if zone == hwclock.ZoneUTC {
			loc = time.UTC
		}
		tv, err := parseDate(dateFlag, loc)
		if err != nil {
			return err
		}
		cfg.SetTime = &tv
	}
	if testMode {
		fmt.Println(color.YellowString("Test mode active, no clock will actually be updated."))
	}

	var store *adjfile.Store
	if !noAdjfile {
		path := adjfilePath
		if path == "" {
			path = defaults.Adjfile
		}
		if path == "" {
			path = adjfile.DefaultPath
		}
		if store, err = adjfile.NewStore(path, defaults.LockAdjfile); err != nil {
			return err
		}
	}

	var drv rtc.Driver
	if mode != hwclock.ModePredict && mode != hwclock.ModeSystz {
		device := rtcDevice
		if device == "" {
			device = defaults.Device
		}
		if drv, err = rtc.Probe(device, directISA); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return hwclock.New(cfg, drv, store).Run(ctx)
}

// Execute is the main entry point for the CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
