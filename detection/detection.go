// go-cardstore
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cardstore.
//
// go-cardstore is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cardstore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cardstore; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package detection lists the serial ports and I2C buses a reader could be
// attached to.
package detection

import (
	"errors"
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrNoDevicesFound is returned when nothing usable was found.
var ErrNoDevicesFound = errors.New("no devices found")

// Confidence ranks how likely a port is to carry a PN532.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// knownAdapters are USB-serial bridges PN532 breakout boards ship with.
var knownAdapters = map[string]string{
	"1A86:7523": "CH340",
	"10C4:EA60": "CP210x",
	"0403:6001": "FT232R",
	"067B:2303": "PL2303",
}

// Options filters the listing.
type Options struct {
	Blocklist   []string
	IgnorePaths []string
}

// DefaultOptions returns options with the default blocklist.
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

// Device is one candidate attachment point.
type Device struct {
	Path       string
	Transport  string // "uart" or "i2c"
	Name       string
	VIDPID     string
	Confidence Confidence
}

func (d Device) String() string {
	s := fmt.Sprintf("%-4s %-20s confidence=%s", d.Transport, d.Path, d.Confidence)
	if d.VIDPID != "" {
		s += " usb=" + d.VIDPID
	}
	if d.Name != "" {
		s += " (" + d.Name + ")"
	}
	return s
}

var listSerialPorts = enumerator.GetDetailedPortsList

// SerialPorts lists serial ports, most likely readers first.
func SerialPorts(opts Options) ([]Device, error) {
	ports, err := listSerialPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	devices := make([]Device, 0, len(ports))
	for _, p := range ports {
		if IsPathIgnored(p.Name, opts.IgnorePaths) {
			continue
		}
		dev := Device{Path: p.Name, Transport: "uart", Name: p.Product, Confidence: Low}
		if p.IsUSB {
			dev.VIDPID = FormatVIDPID(p.VID, p.PID)
			if IsBlocked(dev.VIDPID, opts.Blocklist) {
				continue
			}
			dev.Confidence = Medium
			if chip, ok := knownAdapters[dev.VIDPID]; ok {
				dev.Confidence = High
				if dev.Name == "" {
					dev.Name = chip
				}
			}
		}
		devices = append(devices, dev)
	}

	sortDevices(devices)
	return devices, nil
}

var listI2CBuses = func() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	refs := i2creg.All()
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names, nil
}

// I2CBuses lists the registered I2C buses. The PN532 answers at a fixed
// address on whichever bus it is wired to.
func I2CBuses(opts Options) ([]Device, error) {
	names, err := listI2CBuses()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(names))
	for _, name := range names {
		if IsPathIgnored(name, opts.IgnorePaths) {
			continue
		}
		devices = append(devices, Device{Path: name, Transport: "i2c", Confidence: Medium})
	}
	return devices, nil
}

// All lists serial ports and I2C buses. A failure of one enumerator is
// tolerated while the other finds something.
func All(opts Options) ([]Device, error) {
	serialDevs, serialErr := SerialPorts(opts)
	i2cDevs, i2cErr := I2CBuses(opts)

	devices := append(serialDevs, i2cDevs...)
	sortDevices(devices)
	if len(devices) == 0 {
		if err := errors.Join(serialErr, i2cErr); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDevicesFound, err)
		}
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

func sortDevices(devices []Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Confidence != devices[j].Confidence {
			return devices[i].Confidence > devices[j].Confidence
		}
		return devices[i].Path < devices[j].Path
	})
}
