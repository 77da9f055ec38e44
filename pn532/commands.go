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

// PN532 Command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSamConfiguration    = 0x14
	cmdRFConfiguration     = 0x32
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
)

// SAMConfiguration parameters
const (
	samModeNormal  = 0x01
	samTimeout     = 0x14 // 50ms units, only used in virtual card mode
	samUseIRQ      = 0x01
	rfItemMaxRetry = 0x05
	brTy106kbpsA   = 0x00
	maxTargets     = 0x01
	icPN532        = 0x32
	statusOK       = 0x00
	statusErrMask  = 0x3F
	statusAuthErr  = 0x14
	dataTarget     = 0x01
	mifareBlockLen = 16
	mifareKeyLen   = 6
	mifareUIDBytes = 4
)

// MIFARE Classic commands carried by InDataExchange
const (
	mifareCmdAuthA = 0x60
	mifareCmdRead  = 0x30
	mifareCmdWrite = 0xA0
)
