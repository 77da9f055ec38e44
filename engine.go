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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Engine maps a 96-byte key and a 512-byte logical payload onto the 16
// sectors of a MIFARE Classic 1K card.
//
// Every card operation runs inside a session: power up, detect the card, do
// the work, power down. The power flag is owned by the Engine and is false
// whenever a public method has returned. Operations are serialized; once a
// session has powered the module it runs to completion even if the caller's
// context is cancelled.
type Engine struct {
	hw      Hardware
	config  *EngineConfig
	sleep   func(time.Duration)
	mu      sync.Mutex
	powered bool
}

// NewEngine creates an Engine bound to hw.
func NewEngine(hw Hardware, opts ...Option) (*Engine, error) {
	if hw == nil {
		return nil, errors.New("hardware must not be nil")
	}
	e := &Engine{
		hw:     hw,
		config: DefaultEngineConfig(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Init drives the module into its idle, powered-down state. Call it once
// after construction so the reader does not draw power before the first
// command.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	debugln("init: powering down module")
	err := e.hw.SetPower(ctx, false)
	e.powered = false
	if err != nil {
		return fmt.Errorf("failed to power down module: %w", err)
	}
	return nil
}

// Powered reports the current power flag.
func (e *Engine) Powered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.powered
}

// Version returns the firmware version text. It does not touch the card.
func (e *Engine) Version() string {
	return e.config.Version
}

// ScanUID returns the UID of the card in the field as uppercase hex.
func (e *Engine) ScanUID(ctx context.Context) (string, error) {
	var uidHex string
	err := e.session(ctx, "scanUID", func(_ context.Context, uid []byte) error {
		uidHex = BytesToHex(uid)
		return nil
	})
	if err != nil {
		return "", err
	}
	return uidHex, nil
}

// ReadData returns the stored payload as 1024 hex characters. Bytes beyond
// the stored length are reported as zero.
func (e *Engine) ReadData(ctx context.Context, key string) (string, error) {
	km, err := ParseKeyMaterial(key)
	if err != nil {
		return "", err
	}

	var out string
	err = e.session(ctx, "readData", func(ctx context.Context, uid []byte) error {
		payload, readErr := e.readPayload(ctx, uid, km)
		if readErr != nil {
			return readErr
		}
		out = BytesToHex(payload[:])
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// WriteData stores data (up to 1024 hex characters, zero-padded) under key.
// Only the sectors covered by the payload's effective length are written.
func (e *Engine) WriteData(ctx context.Context, key, data string) error {
	km, err := ParseKeyMaterial(key)
	if err != nil {
		return err
	}
	payload, err := ParsePayload(data)
	if err != nil {
		return err
	}
	length := EffectiveLength(data)

	return e.session(ctx, "writeData", func(ctx context.Context, uid []byte) error {
		return e.writePayload(ctx, uid, km, payload, length)
	})
}

// EnrollKey re-keys all 16 sector trailers from the factory key to key. It
// stops at the first failing sector and does not roll back sectors that were
// already rewritten: after a partial enrollment the card holds new keys on
// sectors before the failure and factory keys from the failure onward.
func (e *Engine) EnrollKey(ctx context.Context, key string) error {
	km, err := ParseKeyMaterial(key)
	if err != nil {
		return err
	}

	return e.session(ctx, "enrollKey", func(ctx context.Context, uid []byte) error {
		return e.enroll(ctx, uid, km)
	})
}

// session brackets fn with power-up, card detection and power-down.
func (e *Engine) session(ctx context.Context, op string, fn func(context.Context, []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A started session is never abandoned half way.
	ctx = context.WithoutCancel(ctx)
	defer e.powerDown(ctx, op)

	if err := e.powerUp(ctx, op); err != nil {
		return err
	}

	uid, err := e.detect(ctx, op)
	if err != nil {
		return err
	}
	return fn(ctx, uid)
}

// detect selects the card in the field. A MIFARE Classic card halts after a
// failed authentication, so it is also used to re-select before continuing.
func (e *Engine) detect(ctx context.Context, op string) ([]byte, error) {
	uid, err := e.hw.DetectCard(ctx)
	if err != nil || len(uid) == 0 {
		debugf("%s: no card found: %v", op, err)
		if err == nil {
			return nil, ErrNoTag
		}
		return nil, fmt.Errorf("%w: %w", ErrNoTag, err)
	}
	debugf("%s: card found, UID %s", op, BytesToHex(uid))
	return uid, nil
}

func (e *Engine) powerUp(ctx context.Context, op string) error {
	if e.powered {
		debugf("%s: module already powered", op)
		return nil
	}

	debugf("%s: powering up module", op)
	if err := e.hw.SetPower(ctx, true); err != nil {
		return fmt.Errorf("%w: %w", ErrPowerUp, err)
	}
	e.sleep(e.config.SettleDelay)
	e.powered = true

	if err := e.hw.Handshake(ctx); err != nil {
		debugf("%s: firmware handshake failed: %v", op, err)
		return fmt.Errorf("%w: firmware handshake: %w", ErrPowerUp, err)
	}
	return nil
}

func (e *Engine) powerDown(ctx context.Context, op string) {
	debugf("%s: powering down module", op)
	if err := e.hw.SetPower(ctx, false); err != nil {
		debugf("%s: power down failed: %v", op, err)
	}
	e.powered = false
}

// authenticate unlocks sector with its sub-key as key B.
func (e *Engine) authenticate(ctx context.Context, uid []byte, sector int, block uint8, km *KeyMaterial) error {
	sub := km.SubKey(sector)
	defer clear(sub[:])
	if err := e.hw.Authenticate(ctx, uid, block, KeyB, sub[:]); err != nil {
		return fmt.Errorf("%w: sector %d: %w", ErrAuthFailed, sector, err)
	}
	return nil
}

// readLength resolves the stored payload length. An unreadable header means
// the full payload is read rather than risking silent truncation. It returns
// the UID to continue with, which differs from uid when the card had to be
// re-selected.
func (e *Engine) readLength(ctx context.Context, uid []byte, km *KeyMaterial) (int, []byte, error) {
	if err := e.authenticate(ctx, uid, headerSector, headerBlock, km); err != nil {
		debugf("readData: header auth failed, assuming %d bytes: %v", PayloadSize, err)
		uid, err = e.detect(ctx, "readData")
		return PayloadSize, uid, err
	}
	block, err := e.hw.ReadBlock(ctx, headerBlock)
	if err != nil {
		debugf("readData: header read failed, assuming %d bytes: %v", PayloadSize, err)
		uid, err = e.detect(ctx, "readData")
		return PayloadSize, uid, err
	}
	length, ok := decodeHeader(block)
	if !ok {
		debugf("readData: header out of range, assuming %d bytes", PayloadSize)
	}
	return length, uid, nil
}

func (e *Engine) readPayload(ctx context.Context, uid []byte, km *KeyMaterial) (*Payload, error) {
	var payload Payload

	length, uid, err := e.readLength(ctx, uid, km)
	if err != nil {
		return nil, err
	}
	debugf("readData: stored length %d bytes", length)
	if length == 0 {
		return &payload, nil
	}

	sectors := SectorsNeeded(length)
	for sector := 0; sector < sectors; sector++ {
		blocks := dataBlocks(sector)
		if err := e.authenticate(ctx, uid, sector, blocks[0], km); err != nil {
			return nil, err
		}
		for i, block := range blocks {
			data, err := e.hw.ReadBlock(ctx, block)
			if err != nil {
				return nil, fmt.Errorf("%w: block %d: %w", ErrReadFailed, block, err)
			}
			if len(data) < BlockSize {
				return nil, fmt.Errorf("%w: block %d returned %d bytes", ErrReadFailed, block, len(data))
			}
			off := sector*SectorPayloadSize + i*BlockSize
			copy(payload[off:off+BlockSize], data[:BlockSize])
		}
		debugf("readData: sector %d read (blocks %d, %d)", sector, blocks[0], blocks[1])
	}

	clear(payload[length:])
	return &payload, nil
}

func (e *Engine) writePayload(ctx context.Context, uid []byte, km *KeyMaterial, payload *Payload, length int) error {
	// The header is bookkeeping: a failure here does not stop the data write.
	if err := e.writeLength(ctx, uid, km, length); err != nil {
		debugf("writeData: header write failed: %v", err)
		if uid, err = e.detect(ctx, "writeData"); err != nil {
			return err
		}
	}
	if length == 0 {
		debugln("writeData: empty payload, header only")
		return nil
	}

	sectors := SectorsNeeded(length)
	for sector := 0; sector < sectors; sector++ {
		blocks := dataBlocks(sector)
		if err := e.authenticate(ctx, uid, sector, blocks[0], km); err != nil {
			return err
		}
		for i, block := range blocks {
			off := sector*SectorPayloadSize + i*BlockSize
			if err := e.hw.WriteBlock(ctx, block, payload[off:off+BlockSize]); err != nil {
				return fmt.Errorf("%w: block %d: %w", ErrWriteFailed, block, err)
			}
		}
		debugf("writeData: sector %d written (blocks %d, %d)", sector, blocks[0], blocks[1])
	}
	return nil
}

func (e *Engine) writeLength(ctx context.Context, uid []byte, km *KeyMaterial, length int) error {
	if err := e.authenticate(ctx, uid, headerSector, headerBlock, km); err != nil {
		return err
	}
	header := encodeHeader(length)
	if err := e.hw.WriteBlock(ctx, headerBlock, header[:]); err != nil {
		return fmt.Errorf("%w: header block: %w", ErrWriteFailed, err)
	}
	debugf("writeData: length header set to %d", length)
	return nil
}

func (e *Engine) enroll(ctx context.Context, uid []byte, km *KeyMaterial) error {
	factory := e.config.FactoryKey
	for sector := 0; sector < SectorCount; sector++ {
		block := trailerBlock(sector)
		if err := e.hw.Authenticate(ctx, uid, block, KeyA, factory[:]); err != nil {
			return enrollFailure(sector, fmt.Errorf("%w: %w", ErrAuthFailed, err))
		}

		trailer := buildTrailer(sector, km.SubKey(sector))
		err := e.hw.WriteBlock(ctx, block, trailer[:])
		clear(trailer[:])
		if err != nil {
			return enrollFailure(sector, fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
		debugf("enrollKey: sector %d trailer (block %d) rewritten", sector, block)
	}
	return nil
}

func enrollFailure(sector int, err error) error {
	var rekeyed string
	switch sector {
	case 0:
		rekeyed = "no sectors re-keyed"
	case 1:
		rekeyed = "sector 0 already re-keyed"
	default:
		rekeyed = fmt.Sprintf("sectors 0-%d already re-keyed", sector-1)
	}
	return fmt.Errorf("%w at sector %d (%s): %w", ErrEnrollFailed, sector, rekeyed, err)
}
