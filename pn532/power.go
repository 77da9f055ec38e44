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

package pn532

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PowerPin drives the module's RSTPDN line.
type PowerPin interface {
	Set(on bool) error
}

// NoopPowerPin is used when the module is powered permanently.
type NoopPowerPin struct{}

// Set does nothing.
func (NoopPowerPin) Set(bool) error { return nil }

// GPIOPowerPin drives RSTPDN from a host GPIO.
type GPIOPowerPin struct {
	pin       gpio.PinOut
	activeLow bool
}

// NewGPIOPowerPin opens the named GPIO (for example "GPIO17") through the
// periph host drivers.
func NewGPIOPowerPin(name string, activeLow bool) (*GPIOPowerPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: no GPIO named %q", ErrInvalidParameter, name)
	}
	return NewPowerPinFromGPIO(pin, activeLow), nil
}

// NewPowerPinFromGPIO wraps an already opened pin.
func NewPowerPinFromGPIO(pin gpio.PinOut, activeLow bool) *GPIOPowerPin {
	return &GPIOPowerPin{pin: pin, activeLow: activeLow}
}

// Set raises or lowers the power line.
func (p *GPIOPowerPin) Set(on bool) error {
	level := gpio.Level(on != p.activeLow)
	if err := p.pin.Out(level); err != nil {
		return fmt.Errorf("failed to set %s to %s: %w", p.pin, level, err)
	}
	return nil
}

var (
	_ PowerPin = NoopPowerPin{}
	_ PowerPin = (*GPIOPowerPin)(nil)
)
