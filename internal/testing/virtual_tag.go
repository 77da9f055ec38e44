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

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-cardstore"
)

// Virtual card errors
var (
	ErrNotPowered     = errors.New("module not powered")
	ErrNoFirmware     = errors.New("firmware not responding")
	ErrTagNotPresent  = errors.New("tag not present")
	ErrNotAuth        = errors.New("sector not authenticated")
	ErrWrongKey       = errors.New("authentication rejected")
	ErrWriteProtected = errors.New("block is write protected")
	ErrInjected       = errors.New("injected failure")
	ErrHalted         = errors.New("card halted, select it again")
)

const mifare1KBlocks = 64

// factoryTrailer is the trailer of a blank MIFARE Classic 1K sector.
var factoryTrailer = [cardstore.BlockSize]byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key A
	0xFF, 0x07, 0x80, 0x69, // Access bits
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key B
}

// VirtualTag simulates a PN532 module with a MIFARE Classic 1K card in its
// field. It implements cardstore.Hardware and records what the engine did
// so tests can assert on block traffic and power state.
type VirtualTag struct {
	// Failure injection. FailAuthOnce is keyed by block and consumed by
	// the first authentication against that block.
	FailAuthSectors map[int]bool
	FailAuthOnce    map[uint8]bool
	FailReadBlocks  map[uint8]bool
	FailWriteBlocks map[uint8]bool

	UID    []byte
	Memory [mifare1KBlocks][cardstore.BlockSize]byte

	// Recorded traffic
	PowerLog []bool
	AuthLog  []uint8
	ReadLog  []uint8
	WriteLog []uint8

	mu              sync.Mutex
	authSector      int
	Present         bool
	FailPowerUp     bool
	FailHandshake   bool
	powered         bool
	firmwareReady   bool
	halted          bool
	handshakeCalled int
}

// NewVirtualMIFARE1K creates a blank card: zeroed data blocks and factory
// keys on every sector trailer.
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFARE1KUID
	}

	tag := &VirtualTag{
		UID:             append([]byte(nil), uid...),
		Present:         true,
		authSector:      -1,
		FailAuthSectors: make(map[int]bool),
		FailAuthOnce:    make(map[uint8]bool),
		FailReadBlocks:  make(map[uint8]bool),
		FailWriteBlocks: make(map[uint8]bool),
	}
	copy(tag.Memory[0][:len(tag.UID)], tag.UID)
	for sector := 0; sector < cardstore.SectorCount; sector++ {
		tag.Memory[sector*cardstore.BlocksPerSector+3] = factoryTrailer
	}
	return tag
}

// SetSectorKeyB installs key as key B of every sector, as a completed
// enrollment would.
func (v *VirtualTag) SetSectorKeyB(km *cardstore.KeyMaterial) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for sector := 0; sector < cardstore.SectorCount; sector++ {
		sub := km.SubKey(sector)
		copy(v.Memory[sector*cardstore.BlocksPerSector+3][10:16], sub[:])
	}
}

// GetUIDString returns the UID as uppercase hex
func (v *VirtualTag) GetUIDString() string {
	return cardstore.BytesToHex(v.UID)
}

// Remove sets the tag as not present
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Present = false
}

// Insert sets the tag as present
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Present = true
}

// Powered reports the simulated power line level.
func (v *VirtualTag) Powered() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.powered
}

// HandshakeCount returns how many firmware handshakes were attempted.
func (v *VirtualTag) HandshakeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.handshakeCalled
}

// Block returns a copy of a raw memory block.
func (v *VirtualTag) Block(block uint8) [cardstore.BlockSize]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.Memory[block]
}

// ResetLogs clears the recorded traffic.
func (v *VirtualTag) ResetLogs() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.PowerLog = nil
	v.AuthLog = nil
	v.ReadLog = nil
	v.WriteLog = nil
}

// SetPower implements cardstore.Hardware
func (v *VirtualTag) SetPower(_ context.Context, on bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.PowerLog = append(v.PowerLog, on)
	if on && v.FailPowerUp {
		return fmt.Errorf("%w: power pin", ErrInjected)
	}
	v.powered = on
	if !on {
		v.firmwareReady = false
		v.authSector = -1
		v.halted = false
	}
	return nil
}

// Handshake implements cardstore.Hardware
func (v *VirtualTag) Handshake(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.handshakeCalled++
	if !v.powered {
		return ErrNotPowered
	}
	if v.FailHandshake {
		return ErrNoFirmware
	}
	v.firmwareReady = true
	return nil
}

// DetectCard implements cardstore.Hardware
func (v *VirtualTag) DetectCard(_ context.Context) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.readyLocked(); err != nil {
		return nil, err
	}
	if !v.Present {
		return nil, ErrTagNotPresent
	}
	v.halted = false
	v.authSector = -1
	return append([]byte(nil), v.UID...), nil
}

// Authenticate implements cardstore.Hardware. A rejected authentication
// halts the card until the next DetectCard.
func (v *VirtualTag) Authenticate(
	_ context.Context, uid []byte, block uint8, keyType cardstore.KeyType, key []byte,
) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.AuthLog = append(v.AuthLog, block)
	v.authSector = -1
	err := v.authenticateLocked(uid, block, keyType, key)
	if err != nil && !errors.Is(err, ErrNotPowered) && !errors.Is(err, ErrNoFirmware) {
		v.halted = true
	}
	return err
}

func (v *VirtualTag) authenticateLocked(uid []byte, block uint8, keyType cardstore.KeyType, key []byte) error {
	if err := v.readyLocked(); err != nil {
		return err
	}
	if !v.Present || string(uid) != string(v.UID) {
		return ErrTagNotPresent
	}
	if v.halted {
		return ErrHalted
	}
	if int(block) >= mifare1KBlocks {
		return fmt.Errorf("block %d out of range", block)
	}

	sector := int(block) / cardstore.BlocksPerSector
	if v.FailAuthOnce[block] {
		delete(v.FailAuthOnce, block)
		return fmt.Errorf("%w: block %d", ErrInjected, block)
	}
	if v.FailAuthSectors[sector] {
		return fmt.Errorf("%w: sector %d", ErrInjected, sector)
	}

	trailer := v.Memory[sector*cardstore.BlocksPerSector+3]
	var stored []byte
	switch keyType {
	case cardstore.KeyA:
		stored = trailer[0:6]
	case cardstore.KeyB:
		stored = trailer[10:16]
	default:
		return fmt.Errorf("invalid key type: 0x%02X", byte(keyType))
	}
	if len(key) != cardstore.SubKeySize || string(stored) != string(key) {
		return fmt.Errorf("%w: sector %d", ErrWrongKey, sector)
	}

	v.authSector = sector
	return nil
}

// ReadBlock implements cardstore.Hardware
func (v *VirtualTag) ReadBlock(_ context.Context, block uint8) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.ReadLog = append(v.ReadLog, block)
	if err := v.checkAccessLocked(block); err != nil {
		return nil, err
	}
	if v.FailReadBlocks[block] {
		v.halted = true
		v.authSector = -1
		return nil, fmt.Errorf("%w: read block %d", ErrInjected, block)
	}

	data := v.Memory[block]
	if isTrailer(block) {
		// Key A is never readable.
		clear(data[0:6])
	}
	return data[:], nil
}

// WriteBlock implements cardstore.Hardware
func (v *VirtualTag) WriteBlock(_ context.Context, block uint8, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.WriteLog = append(v.WriteLog, block)
	if err := v.checkAccessLocked(block); err != nil {
		return err
	}
	if block == 0 {
		return ErrWriteProtected
	}
	if len(data) != cardstore.BlockSize {
		return fmt.Errorf("data must be exactly %d bytes, got %d", cardstore.BlockSize, len(data))
	}
	if v.FailWriteBlocks[block] {
		v.halted = true
		v.authSector = -1
		return fmt.Errorf("%w: write block %d", ErrInjected, block)
	}

	copy(v.Memory[block][:], data)
	return nil
}

func (v *VirtualTag) readyLocked() error {
	if !v.powered {
		return ErrNotPowered
	}
	if !v.firmwareReady {
		return ErrNoFirmware
	}
	return nil
}

func (v *VirtualTag) checkAccessLocked(block uint8) error {
	if err := v.readyLocked(); err != nil {
		return err
	}
	if !v.Present {
		return ErrTagNotPresent
	}
	if v.halted {
		return ErrHalted
	}
	if int(block) >= mifare1KBlocks {
		return fmt.Errorf("block %d out of range", block)
	}
	if v.authSector != int(block)/cardstore.BlocksPerSector {
		return fmt.Errorf("%w: block %d", ErrNotAuth, block)
	}
	return nil
}

func isTrailer(block uint8) bool {
	return block%cardstore.BlocksPerSector == cardstore.BlocksPerSector-1
}

var _ cardstore.Hardware = (*VirtualTag)(nil)
