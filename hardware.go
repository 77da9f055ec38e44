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

import "context"

// Hardware is the reader driver the Engine runs sessions against. Each call
// is a single bounded operation; the driver enforces its own timeouts.
//
// Implementations: pn532.Device (PN532 over UART or I2C), pcsc.Reader
// (PC/SC readers) and the virtual card used in tests.
type Hardware interface {
	// SetPower drives the module's power-down line. Turning power on does
	// not wait for the module to settle; the Engine does that.
	SetPower(ctx context.Context, on bool) error

	// Handshake probes the firmware and prepares the module for card access.
	Handshake(ctx context.Context) error

	// DetectCard looks for a single ISO14443A card and returns its UID.
	DetectCard(ctx context.Context) ([]byte, error)

	// Authenticate unlocks the sector containing block for subsequent
	// ReadBlock/WriteBlock calls.
	Authenticate(ctx context.Context, uid []byte, block uint8, keyType KeyType, key []byte) error

	// ReadBlock returns the 16 bytes stored in block.
	ReadBlock(ctx context.Context, block uint8) ([]byte, error)

	// WriteBlock stores exactly 16 bytes in block.
	WriteBlock(ctx context.Context, block uint8, data []byte) error
}
