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

import "errors"

// Device errors
var (
	ErrNoTagDetected        = errors.New("no tag detected")
	ErrFirmwareNotFound     = errors.New("PN532 firmware not responding")
	ErrInvalidResponse      = errors.New("invalid PN532 response")
	ErrAuthenticationFailed = errors.New("MIFARE authentication failed")
	ErrCommandFailed        = errors.New("PN532 command returned error status")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrNilTransport         = errors.New("transport must not be nil")
)
