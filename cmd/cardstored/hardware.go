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

package main

import (
	"fmt"
	"log"

	"github.com/ZaparooProject/go-cardstore"
	"github.com/ZaparooProject/go-cardstore/config"
	testutil "github.com/ZaparooProject/go-cardstore/internal/testing"
	"github.com/ZaparooProject/go-cardstore/pcsc"
	"github.com/ZaparooProject/go-cardstore/pn532"
	"github.com/ZaparooProject/go-cardstore/transport/i2c"
	"github.com/ZaparooProject/go-cardstore/transport/uart"
)

// openHardware builds the reader backend named by cfg.Type. The returned
// func releases it.
func openHardware(cfg config.ReaderConfig) (cardstore.Hardware, func() error, error) {
	switch cfg.Type {
	case config.ReaderPN532UART, config.ReaderPN532I2C:
		return openPN532(cfg)
	case config.ReaderPCSC:
		reader, err := pcsc.New(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return reader, reader.Close, nil
	case config.ReaderVirtual:
		tag := testutil.NewVirtualMIFARE1K(nil)
		log.Printf("[reader] virtual MIFARE 1K card, UID %s", tag.GetUIDString())
		return tag, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported reader type: %s", cfg.Type)
	}
}

func openPN532(cfg config.ReaderConfig) (cardstore.Hardware, func() error, error) {
	var (
		t   pn532.Transport
		err error
	)
	if cfg.Type == config.ReaderPN532I2C {
		t, err = i2c.New(cfg.Device)
	} else {
		t, err = uart.New(cfg.Device)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open PN532 on %s: %w", cfg.Device, err)
	}

	opts := []pn532.Option{pn532.WithTimeout(cfg.Timeout)}
	if cfg.PowerPin != "" {
		pin, pinErr := pn532.NewGPIOPowerPin(cfg.PowerPin, cfg.PowerActiveLow)
		if pinErr != nil {
			_ = t.Close()
			return nil, nil, pinErr
		}
		opts = append(opts, pn532.WithPowerPin(pin))
	}

	device, err := pn532.New(t, opts...)
	if err != nil {
		_ = t.Close()
		return nil, nil, err
	}
	log.Printf("[reader] PN532 over %s on %s", t.Type(), cfg.Device)
	return device, device.Close, nil
}
