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

// Package pcsc runs the card store on PC/SC contactless readers such as the
// ACR122U, using the readers' MIFARE Classic pseudo-APDUs.
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ebfe/scard"

	"github.com/ZaparooProject/go-cardstore"
)

// Reader errors
var (
	ErrNoReader         = errors.New("no PC/SC reader found")
	ErrNoCard           = errors.New("no card in reader")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// card is the part of *scard.Card the Reader uses.
type card interface {
	Transmit(cmd []byte) ([]byte, error)
	Disconnect(d scard.Disposition) error
}

// Reader implements cardstore.Hardware on a PC/SC reader. The reader
// manages its own RF field, so power changes only drop the card handle.
type Reader struct {
	listReaders func() ([]string, error)
	connect     func(reader string) (card, error)
	release     func() error
	card        card
	name        string
	selected    string
}

// New establishes a PC/SC context. An empty name selects the first reader.
func New(name string) (*Reader, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish PC/SC context: %w", err)
	}
	return &Reader{
		name:        name,
		listReaders: sctx.ListReaders,
		connect: func(reader string) (card, error) {
			return sctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
		},
		release: sctx.Release,
	}, nil
}

// Readers lists the attached PC/SC readers.
func (r *Reader) Readers() ([]string, error) {
	readers, err := r.listReaders()
	if err != nil {
		return nil, fmt.Errorf("failed to list readers: %w", err)
	}
	return readers, nil
}

// Close disconnects any card and releases the PC/SC context.
func (r *Reader) Close() error {
	r.disconnect()
	if r.release == nil {
		return nil
	}
	if err := r.release(); err != nil {
		return fmt.Errorf("failed to release PC/SC context: %w", err)
	}
	return nil
}

// SetPower implements cardstore.Hardware. Powering down disconnects from
// the card so the next session starts with a fresh handle.
func (r *Reader) SetPower(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !on {
		r.disconnect()
	}
	return nil
}

// Handshake implements cardstore.Hardware by checking the reader is attached.
func (r *Reader) Handshake(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	readers, err := r.Readers()
	if err != nil {
		return err
	}
	switch {
	case len(readers) == 0:
		return ErrNoReader
	case r.name == "":
		r.selected = readers[0]
	case slices.Contains(readers, r.name):
		r.selected = r.name
	default:
		return fmt.Errorf("%w: %q not in %v", ErrNoReader, r.name, readers)
	}
	return nil
}

// DetectCard implements cardstore.Hardware with GET DATA (UID).
func (r *Reader) DetectCard(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.selected == "" {
		return nil, fmt.Errorf("%w: handshake not done", ErrNoReader)
	}
	if r.card == nil {
		c, err := r.connect(r.selected)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoCard, err)
		}
		r.card = c
	}

	uid, err := r.transmit(getUIDAPDU())
	if err != nil {
		return nil, err
	}
	if len(uid) == 0 {
		return nil, ErrNoCard
	}
	return uid, nil
}

// Authenticate implements cardstore.Hardware: load the key into the
// reader's volatile slot, then run general authenticate on block.
func (r *Reader) Authenticate(
	ctx context.Context, _ []byte, block uint8, keyType cardstore.KeyType, key []byte,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(key) != subKeyLen {
		return fmt.Errorf("%w: key must be %d bytes", ErrInvalidParameter, subKeyLen)
	}
	if keyType != cardstore.KeyA && keyType != cardstore.KeyB {
		return fmt.Errorf("%w: key type 0x%02X", ErrInvalidParameter, byte(keyType))
	}

	load := loadKeyAPDU(key)
	defer clear(load)
	if _, err := r.transmit(load); err != nil {
		return fmt.Errorf("load key: %w", err)
	}
	if _, err := r.transmit(authenticateAPDU(block, keyType)); err != nil {
		return fmt.Errorf("authenticate block %d: %w", block, err)
	}
	return nil
}

// ReadBlock implements cardstore.Hardware
func (r *Reader) ReadBlock(ctx context.Context, block uint8) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.transmit(readAPDU(block))
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", block, err)
	}
	if len(data) < blockLen {
		return nil, fmt.Errorf("read block %d: got %d bytes", block, len(data))
	}
	return data[:blockLen], nil
}

// WriteBlock implements cardstore.Hardware
func (r *Reader) WriteBlock(ctx context.Context, block uint8, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) != blockLen {
		return fmt.Errorf("%w: data must be exactly %d bytes, got %d", ErrInvalidParameter, blockLen, len(data))
	}
	if _, err := r.transmit(updateAPDU(block, data)); err != nil {
		return fmt.Errorf("write block %d: %w", block, err)
	}
	return nil
}

func (r *Reader) transmit(apdu []byte) ([]byte, error) {
	if r.card == nil {
		return nil, ErrNoCard
	}
	rsp, err := r.card.Transmit(apdu)
	if err != nil {
		return nil, fmt.Errorf("transmit failed: %w", err)
	}
	return checkStatus(rsp)
}

func (r *Reader) disconnect() {
	if r.card == nil {
		return
	}
	_ = r.card.Disconnect(scard.LeaveCard)
	r.card = nil
}

var _ cardstore.Hardware = (*Reader)(nil)
