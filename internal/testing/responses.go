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

package testing

// Replies as returned by a pn532.Transport: the payload after the TFI byte,
// starting with the response code.

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response
func BuildFirmwareVersionResponse() []byte {
	// IC, Ver, Rev, Support: PN532 v1.6, ISO14443A/B + ISO18092
	return []byte{CmdGetFirmwareVersion + 1, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{CmdSAMConfiguration + 1}
}

// BuildRFConfigurationResponse creates an RFConfiguration response
func BuildRFConfigurationResponse() []byte {
	return []byte{CmdRFConfiguration + 1}
}

// BuildTagDetectionResponse creates an InListPassiveTarget response for a
// MIFARE Classic 1K with uid
func BuildTagDetectionResponse(uid []byte) []byte {
	response := []byte{CmdInListPassiveTarget + 1, 0x01, 0x01} // 1 target found, Tg 1

	// ATQA (Answer To Request Type A), SAK (Select Acknowledge), UID length and UID
	response = append(response, 0x00, 0x04, 0x08, byte(len(uid)))
	response = append(response, uid...)

	return response
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{CmdInListPassiveTarget + 1, 0x00}
}

// BuildDataExchangeResponse creates a successful InDataExchange response
func BuildDataExchangeResponse(data []byte) []byte {
	response := []byte{CmdInDataExchange + 1, 0x00}
	response = append(response, data...)
	return response
}

// BuildDataExchangeErrorResponse creates an InDataExchange response carrying
// a PN532 error status, such as 0x14 for a MIFARE authentication error
func BuildDataExchangeErrorResponse(status byte) []byte {
	return []byte{CmdInDataExchange + 1, status}
}

// Common UIDs for testing
var (
	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestMIFARE7ByteUID is a sample double-size UID
	TestMIFARE7ByteUID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}
)

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
)
