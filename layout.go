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
	"encoding/binary"
	"fmt"
)

// Card layout constants for a MIFARE Classic 1K.
const (
	SectorCount         = 16
	BlocksPerSector     = 4
	BlockSize           = 16
	DataBlocksPerSector = 2
	SectorPayloadSize   = DataBlocksPerSector * BlockSize // 32
	PayloadSize         = SectorCount * SectorPayloadSize // 512
	SubKeySize          = 6
	KeySize             = SectorCount * SubKeySize // 96

	KeyHexLength     = KeySize * 2     // 192
	PayloadHexLength = PayloadSize * 2 // 1024
)

// Length header location: first block of sector 1, which carries no payload.
const (
	headerSector    = 1
	headerBlock     = headerSector * BlocksPerSector
	headerFieldSize = 2
)

// KeyType selects which sector key an authentication uses.
type KeyType byte

const (
	KeyA KeyType = 0x00
	KeyB KeyType = 0x01
)

func (k KeyType) String() string {
	switch k {
	case KeyA:
		return "A"
	case KeyB:
		return "B"
	default:
		return fmt.Sprintf("KeyType(0x%02X)", byte(k))
	}
}

// Sector trailer contents written by EnrollKey.
var (
	// FactoryKey is the transport key found on blank cards.
	FactoryKey = [SubKeySize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	// madKeyA is installed as key A on sector 0.
	madKeyA = [SubKeySize]byte{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}

	// sharedKeyA is installed as key A on sectors 1-15.
	sharedKeyA = [SubKeySize]byte{0xD3, 0xF7, 0xD3, 0xF7, 0xD3, 0xF7}

	// trailerAccessBits: data blocks readable with A|B and writable with B,
	// trailer keys and access bits writable with B only.
	trailerAccessBits = [4]byte{0x78, 0x77, 0x88, 0x69}
)

// KeyMaterial is the full 96-byte key, one 6-byte sub-key per sector.
type KeyMaterial [KeySize]byte

// SubKey returns the sub-key for sector, bytes [6*sector, 6*sector+6).
func (k *KeyMaterial) SubKey(sector int) [SubKeySize]byte {
	var sub [SubKeySize]byte
	copy(sub[:], k[sector*SubKeySize:(sector+1)*SubKeySize])
	return sub
}

// ParseKeyMaterial decodes a 192-character hex key.
func ParseKeyMaterial(text string) (*KeyMaterial, error) {
	if len(text) != KeyHexLength || !isHexString(text) {
		return nil, ErrInvalidKey
	}
	raw, err := HexToBytes(text)
	if err != nil {
		return nil, ErrInvalidKey
	}
	var km KeyMaterial
	copy(km[:], raw)
	return &km, nil
}

// Payload is the logical 512-byte data area.
type Payload [PayloadSize]byte

// ParsePayload decodes up to 1024 hex characters, left-aligned and
// zero-padded to the full payload size.
func ParsePayload(text string) (*Payload, error) {
	if len(text)%2 != 0 || len(text) > PayloadHexLength || !isHexString(text) {
		return nil, ErrInvalidData
	}
	raw, err := HexToBytes(text)
	if err != nil {
		return nil, ErrInvalidData
	}
	var p Payload
	copy(p[:], raw)
	return &p, nil
}

// EffectiveLength returns the smallest byte count that keeps every non-zero
// hex digit of text: for a last non-zero digit at index p that is
// ceil((p+1)/2). An all-zero (or empty) payload yields 0.
func EffectiveLength(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] != '0' {
			return (i + 2) / 2
		}
	}
	return 0
}

// SectorsNeeded returns how many sectors hold length payload bytes:
// ceil(length/32) clamped to [1, 16] for positive lengths, 0 otherwise.
func SectorsNeeded(length int) int {
	if length <= 0 {
		return 0
	}
	n := (length + SectorPayloadSize - 1) / SectorPayloadSize
	if n > SectorCount {
		return SectorCount
	}
	return n
}

// dataBlocks returns the two physical payload blocks of sector.
func dataBlocks(sector int) [DataBlocksPerSector]uint8 {
	first := uint8(sector*BlocksPerSector + 1)
	return [DataBlocksPerSector]uint8{first, first + 1}
}

// trailerBlock returns the physical trailer block of sector.
func trailerBlock(sector int) uint8 {
	return uint8(sector*BlocksPerSector + BlocksPerSector - 1)
}

// encodeHeader builds the header block for length.
func encodeHeader(length int) [BlockSize]byte {
	var block [BlockSize]byte
	binary.BigEndian.PutUint16(block[:headerFieldSize], uint16(length))
	return block
}

// decodeHeader extracts the stored length. Values outside 0-512 cannot have
// been written by this package and are treated like an unreadable header.
func decodeHeader(block []byte) (length int, ok bool) {
	if len(block) < headerFieldSize {
		return PayloadSize, false
	}
	length = int(binary.BigEndian.Uint16(block[:headerFieldSize]))
	if length > PayloadSize {
		return PayloadSize, false
	}
	return length, true
}

// buildTrailer assembles the enrolled trailer for sector with keyB.
func buildTrailer(sector int, keyB [SubKeySize]byte) [BlockSize]byte {
	var block [BlockSize]byte
	keyA := sharedKeyA
	if sector == 0 {
		keyA = madKeyA
	}
	copy(block[0:6], keyA[:])
	copy(block[6:10], trailerAccessBits[:])
	copy(block[10:16], keyB[:])
	return block
}
