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

package pcsc

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-cardstore"
)

// Pseudo-APDU class byte used by PC/SC readers for contactless commands.
const claReader = 0xFF

const (
	insLoadKey      = 0x82
	insAuthenticate = 0x86
	insReadBinary   = 0xB0
	insUpdateBinary = 0xD6
	insGetData      = 0xCA

	keySlot        = 0x00
	authVersion    = 0x01
	mifareAuthA    = 0x60
	blockLen       = 0x10
	subKeyLen      = 0x06
	authDataLen    = 0x05
	statusWordSize = 2
)

// ErrStatusWord is returned when a reader answers with anything but 90 00.
var ErrStatusWord = errors.New("reader returned error status")

func loadKeyAPDU(key []byte) []byte {
	apdu := []byte{claReader, insLoadKey, 0x00, keySlot, subKeyLen}
	return append(apdu, key...)
}

func authenticateAPDU(block uint8, keyType cardstore.KeyType) []byte {
	return []byte{
		claReader, insAuthenticate, 0x00, 0x00, authDataLen,
		authVersion, 0x00, block, mifareAuthA + byte(keyType), keySlot,
	}
}

func readAPDU(block uint8) []byte {
	return []byte{claReader, insReadBinary, 0x00, block, blockLen}
}

func updateAPDU(block uint8, data []byte) []byte {
	apdu := []byte{claReader, insUpdateBinary, 0x00, block, blockLen}
	return append(apdu, data...)
}

func getUIDAPDU() []byte {
	return []byte{claReader, insGetData, 0x00, 0x00, 0x00}
}

// checkStatus strips the status word from rsp, failing unless it is 90 00.
func checkStatus(rsp []byte) ([]byte, error) {
	if len(rsp) < statusWordSize {
		return nil, fmt.Errorf("%w: response of %d bytes", ErrStatusWord, len(rsp))
	}
	sw1, sw2 := rsp[len(rsp)-2], rsp[len(rsp)-1]
	if sw1 != 0x90 || sw2 != 0x00 {
		return nil, fmt.Errorf("%w: %02X %02X", ErrStatusWord, sw1, sw2)
	}
	return rsp[:len(rsp)-statusWordSize], nil
}
