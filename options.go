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

package cardstore

import (
	"errors"
	"time"
)

// DefaultVersion is reported by VERSION.
const DefaultVersion = "1.0.0"

// DefaultSettleDelay is how long the module needs after power is raised.
const DefaultSettleDelay = 100 * time.Millisecond

// EngineConfig contains configuration options for the Engine
type EngineConfig struct {
	// Version is the text returned by Version
	Version string
	// SettleDelay is the wait between raising power and the firmware handshake
	SettleDelay time.Duration
	// FactoryKey authenticates sector trailers during enrollment
	FactoryKey [SubKeySize]byte
}

// DefaultEngineConfig returns default engine configuration
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Version:     DefaultVersion,
		SettleDelay: DefaultSettleDelay,
		FactoryKey:  FactoryKey,
	}
}

// Option is a functional option for configuring an Engine
type Option func(*Engine) error

// WithSettleDelay sets the power-up settling delay
func WithSettleDelay(delay time.Duration) Option {
	return func(e *Engine) error {
		if delay < 0 {
			return errors.New("settle delay must not be negative")
		}
		e.config.SettleDelay = delay
		return nil
	}
}

// WithVersion overrides the reported version text
func WithVersion(version string) Option {
	return func(e *Engine) error {
		if version == "" {
			return errors.New("version must not be empty")
		}
		e.config.Version = version
		return nil
	}
}

// WithFactoryKey sets the key used to unlock blank sector trailers
func WithFactoryKey(key [SubKeySize]byte) Option {
	return func(e *Engine) error {
		e.config.FactoryKey = key
		return nil
	}
}

// withSleep replaces time.Sleep, used by tests to observe the settle delay.
func withSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) error {
		e.sleep = sleep
		return nil
	}
}
