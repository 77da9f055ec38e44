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

// Package uart provides the PN532 HSU (high speed UART) transport
package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-cardstore/internal/frame"
	"github.com/ZaparooProject/go-cardstore/internal/transport"
	"github.com/ZaparooProject/go-cardstore/pn532"
)

const (
	// BaudRate is the PN532 HSU default speed.
	BaudRate = 115200

	defaultTimeout   = time.Second
	readPollInterval = 10 * time.Millisecond
	readChunkSize    = 64
)

// UART errors
var (
	ErrNotConnected = errors.New("serial port not open")
	ErrNoACK        = errors.New("PN532 did not acknowledge command")
	ErrNACK         = errors.New("PN532 rejected command frame")
	ErrTimeout      = errors.New("timed out waiting for PN532 response")
)

// port is the part of serial.Port the transport uses.
type port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Transport implements pn532.Transport over a serial port
type Transport struct {
	port     port
	portName string
	timeout  time.Duration
	mu       sync.Mutex
}

// New opens portName at 115200 8N1
func New(portName string) (*Transport, error) {
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(readPollInterval); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return newTransport(p, portName), nil
}

func newTransport(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  defaultTimeout,
	}
}

// Wake sends the HSU wake-up preamble. The PN532 leaves power-down on the
// first bytes it sees and needs them before the next command frame.
func (t *Transport) Wake(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return ErrNotConnected
	}
	if _, err := t.port.Write(frame.WakeupSequence); err != nil {
		return fmt.Errorf("failed to write wake-up sequence: %w", err)
	}
	return nil
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exchange(t.timeout, cmd, args)
}

// SendCommandWithContext is SendCommand bounded by ctx's deadline
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	timeout := t.timeout
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	resp, err := t.exchange(timeout, cmd, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ctxErr, err)
		}
		if hasDeadline && !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
	}
	return resp, err
}

func (t *Transport) exchange(timeout time.Duration, cmd byte, args []byte) ([]byte, error) {
	if t.port == nil {
		return nil, ErrNotConnected
	}

	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return nil, err
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", t.portName, err)
	}
	if _, err := t.port.Write(frm); err != nil {
		return nil, fmt.Errorf("failed to write frame to %s: %w", t.portName, err)
	}

	var (
		rx    []byte
		acked bool
	)
	chunk := make([]byte, readChunkSize)
	resp, err := transport.TimeoutRetry(timeout, func() ([]byte, bool, error) {
		n, readErr := t.port.Read(chunk)
		if readErr != nil {
			return nil, false, fmt.Errorf("failed to read from %s: %w", t.portName, readErr)
		}
		rx = append(rx, chunk[:n]...)

		if !acked {
			idx := bytes.Index(rx, frame.AckFrame)
			if idx < 0 {
				if bytes.Contains(rx, frame.NackFrame) {
					return nil, false, ErrNACK
				}
				return nil, true, nil
			}
			acked = true
			rx = rx[idx+len(frame.AckFrame):]
		}

		data, frameErr := frame.ExtractFrameData(rx)
		if errors.Is(frameErr, frame.ErrFrameIncomplete) {
			return nil, true, nil
		}
		if frameErr != nil {
			return nil, false, frameErr
		}
		return data, false, nil
	})
	if errors.Is(err, transport.ErrTimeout) {
		if !acked {
			return nil, fmt.Errorf("%w: command 0x%02X on %s", ErrNoACK, cmd, t.portName)
		}
		return nil, fmt.Errorf("%w: command 0x%02X on %s", ErrTimeout, cmd, t.portName)
	}
	return resp, err
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

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

var (
	_ pn532.Transport        = (*Transport)(nil)
	_ pn532.ContextTransport = (*Transport)(nil)
	_ pn532.Waker            = (*Transport)(nil)
)
