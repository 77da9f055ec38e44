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

// Package i2c provides I2C transport implementation for PN532
package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-cardstore/internal/frame"
	"github.com/ZaparooProject/go-cardstore/pn532"
)

const (
	// Address is the PN532's 7-bit I2C address.
	Address = 0x24

	pn532Ready = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	// Every read starts with the status byte.
	statusLen    = 1
	maxFrameLen  = frame.MaxFrameDataLength + 7
	maxRecvTries = 3
	processDelay = 6 * time.Millisecond
)

// I2C errors
var (
	ErrNotReady     = errors.New("PN532 not ready")
	ErrNoACK        = errors.New("PN532 did not acknowledge command")
	ErrTimeout      = errors.New("timed out waiting for PN532 response")
	ErrNotConnected = errors.New("I2C device not open")
)

// conn is the part of *i2c.Dev the transport uses.
type conn interface {
	Tx(w, r []byte) error
}

// Transport implements the pn532.Transport interface for I2C communication
type Transport struct {
	dev     conn
	closer  func() error
	busName string
	timeout time.Duration
	mu      sync.Mutex
}

// New opens busName ("" selects the first bus) and addresses the PN532
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	t := newTransport(&i2c.Dev{Addr: Address, Bus: bus}, busName)
	t.closer = bus.Close
	return t, nil
}

func newTransport(dev conn, busName string) *Transport {
	return &Transport{
		dev:     dev,
		busName: busName,
		timeout: 50 * time.Millisecond,
	}
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil, ErrNotConnected
	}
	if err := t.sendFrame(cmd, args); err != nil {
		return nil, err
	}
	if err := t.waitAck(); err != nil {
		return nil, err
	}

	// Small delay for PN532 to process command
	time.Sleep(processDelay)

	return t.receiveFrame()
}

// SendCommandWithContext sends a command to the PN532 with context support
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.SendCommand(cmd, args)
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", timeout)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close releases the bus
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dev = nil
	if t.closer == nil {
		return nil
	}
	closer := t.closer
	t.closer = nil
	if err := closer(); err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// checkReady reads the status byte
func (t *Transport) checkReady() error {
	ready := make([]byte, statusLen)
	if err := t.dev.Tx(nil, ready); err != nil {
		return fmt.Errorf("I2C ready check failed: %w", err)
	}
	if ready[0] != pn532Ready {
		return ErrNotReady
	}
	return nil
}

// sendFrame sends a frame to the PN532 via I2C
func (t *Transport) sendFrame(cmd byte, args []byte) error {
	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return err
	}
	if err := t.dev.Tx(frm, nil); err != nil {
		return fmt.Errorf("failed to send I2C frame: %w", err)
	}
	return nil
}

// waitAck waits for an ACK frame from the PN532
func (t *Transport) waitAck() error {
	deadline := time.Now().Add(t.timeout)
	ackBuf := make([]byte, statusLen+len(frame.AckFrame))

	for time.Now().Before(deadline) {
		if err := t.dev.Tx(nil, ackBuf); err != nil {
			return fmt.Errorf("I2C ACK read failed: %w", err)
		}
		if ackBuf[0] == pn532Ready && frame.IsAck(ackBuf[statusLen:]) {
			return nil
		}
		time.Sleep(time.Millisecond)
	}

	return fmt.Errorf("%w on bus %s", ErrNoACK, t.busName)
}

func (t *Transport) sendAck() error {
	if err := t.dev.Tx(frame.AckFrame, nil); err != nil {
		return fmt.Errorf("failed to send ACK: %w", err)
	}
	return nil
}

func (t *Transport) sendNack() error {
	if err := t.dev.Tx(frame.NackFrame, nil); err != nil {
		return fmt.Errorf("failed to send NACK: %w", err)
	}
	return nil
}

// receiveFrame reads a response frame, NACKing corrupted ones so the PN532
// sends them again
func (t *Transport) receiveFrame() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	var lastErr error

	for tries := 0; tries < maxRecvTries; {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w on bus %s", ErrTimeout, t.busName)
		}

		if err := t.checkReady(); err != nil {
			if !errors.Is(err, ErrNotReady) {
				return nil, err
			}
			time.Sleep(time.Millisecond)
			continue
		}

		buf := make([]byte, maxFrameLen)
		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, fmt.Errorf("I2C frame data read failed: %w", err)
		}

		data, err := frame.ExtractFrameData(buf[statusLen:])
		if err == nil {
			return data, t.sendAck()
		}
		if errors.Is(err, frame.ErrApplicationError) {
			return nil, err
		}

		lastErr = err
		tries++
		if err := t.sendNack(); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("frame receive failed after %d tries: %w", maxRecvTries, lastErr)
}

// Ensure Transport implements pn532.Transport
var (
	_ pn532.Transport        = (*Transport)(nil)
	_ pn532.ContextTransport = (*Transport)(nil)
)
