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

// Package config loads the cardstored daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Reader backends
const (
	ReaderPN532UART = "pn532-uart"
	ReaderPN532I2C  = "pn532-i2c"
	ReaderPCSC      = "pcsc"
	ReaderVirtual   = "virtual"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the daemon configuration file.
type Config struct {
	Reader ReaderConfig `yaml:"reader"`
	Host   HostConfig   `yaml:"host"`
	Engine EngineConfig `yaml:"engine"`
	Bridge BridgeConfig `yaml:"bridge"`
	Debug  bool         `yaml:"debug"`
}

// ReaderConfig selects and addresses the card reader.
type ReaderConfig struct {
	Type     string `yaml:"type"`      // pn532-uart, pn532-i2c, pcsc or virtual
	Device   string `yaml:"device"`    // serial port, I2C bus or PC/SC reader name
	PowerPin string `yaml:"power_pin"` // GPIO driving the PN532 power, empty for none
	// PowerActiveLow inverts the power pin, as for a reset-style RSTPDN line
	PowerActiveLow bool          `yaml:"power_active_low"`
	Timeout        time.Duration `yaml:"timeout"`
}

// HostConfig is the command link to the host.
type HostConfig struct {
	Port     string `yaml:"port"` // serial port, or "-" for stdin/stdout
	BaudRate int    `yaml:"baud_rate"`
}

// EngineConfig tunes card sessions.
type EngineConfig struct {
	Version     string        `yaml:"version"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// BridgeConfig enables the websocket bridge when ListenAddr is set.
type BridgeConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			Type:    ReaderPN532UART,
			Device:  "/dev/ttyUSB0",
			Timeout: time.Second,
		},
		Host: HostConfig{
			Port:     "-",
			BaudRate: 9600,
		},
		Engine: EngineConfig{
			Version:     "1.0.0",
			SettleDelay: 100 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch c.Reader.Type {
	case ReaderPN532UART, ReaderPN532I2C, ReaderPCSC, ReaderVirtual:
	default:
		return fmt.Errorf("%w: unknown reader type %q", ErrInvalidConfig, c.Reader.Type)
	}
	if c.Reader.Timeout <= 0 {
		return fmt.Errorf("%w: reader timeout must be positive", ErrInvalidConfig)
	}
	if c.Host.Port == "" {
		return fmt.Errorf("%w: host port must be set", ErrInvalidConfig)
	}
	if c.Host.BaudRate <= 0 {
		return fmt.Errorf("%w: host baud rate must be positive", ErrInvalidConfig)
	}
	if c.Engine.Version == "" {
		return fmt.Errorf("%w: engine version must be set", ErrInvalidConfig)
	}
	if c.Engine.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
