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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardstored.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
reader:
  type: pn532-i2c
  device: /dev/i2c-1
  power_pin: GPIO17
  power_active_low: true
host:
  port: /dev/ttyGS0
engine:
  settle_delay: 250ms
bridge:
  listen_addr: ":8080"
debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Reader = ReaderConfig{
		Type:           ReaderPN532I2C,
		Device:         "/dev/i2c-1",
		PowerPin:       "GPIO17",
		PowerActiveLow: true,
		Timeout:        time.Second,
	}
	want.Host.Port = "/dev/ttyGS0"
	want.Engine.SettleDelay = 250 * time.Millisecond
	want.Bridge.ListenAddr = ":8080"
	want.Debug = true

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{name: "Bad_YAML", body: "reader: [unterminated"},
		{name: "Bad_Duration", body: "engine:\n  settle_delay: soon\n"},
		{name: "Unknown_Reader", body: "reader:\n  type: nfc-magic\n", invalid: true},
		{name: "Zero_Timeout", body: "reader:\n  timeout: 0s\n", invalid: true},
		{name: "Negative_Settle", body: "engine:\n  settle_delay: -1s\n", invalid: true},
		{name: "Empty_Version", body: "engine:\n  version: \"\"\n", invalid: true},
		{name: "Empty_Host", body: "host:\n  port: \"\"\n", invalid: true},
		{name: "Zero_Baud", body: "host:\n  baud_rate: 0\n", invalid: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Nil(t, cfg)
			if tt.invalid {
				require.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NotErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
