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

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoMockResponse is returned for commands the mock was not primed with.
var ErrNoMockResponse = errors.New("mock transport has no response for command")

type mockReply struct {
	err  error
	data []byte
}

// MockCall records one command sent through a MockTransport.
type MockCall struct {
	Args []byte
	Cmd  byte
}

// MockTransport is a scripted Transport for driver tests. Queued replies
// are consumed first, then the fixed reply for the command is used.
type MockTransport struct {
	queued    map[byte][]mockReply
	fixed     map[byte]mockReply
	calls     []MockCall
	timeout   time.Duration
	wakeCount int
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		queued: make(map[byte][]mockReply),
		fixed:  make(map[byte]mockReply),
	}
}

// SetResponse sets the reply returned for every cmd
func (m *MockTransport) SetResponse(cmd byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[cmd] = mockReply{data: resp}
}

// SetError makes every cmd fail with err
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[cmd] = mockReply{err: err}
}

// QueueResponse adds a one-shot reply for cmd
func (m *MockTransport) QueueResponse(cmd byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[cmd] = append(m.queued[cmd], mockReply{data: resp})
}

// QueueError adds a one-shot failure for cmd
func (m *MockTransport) QueueError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[cmd] = append(m.queued[cmd], mockReply{err: err})
}

// SendCommand implements Transport
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("mock transport closed")
	}
	m.calls = append(m.calls, MockCall{Cmd: cmd, Args: append([]byte(nil), args...)})

	reply, ok := m.fixed[cmd]
	if q := m.queued[cmd]; len(q) > 0 {
		reply, ok = q[0], true
		m.queued[cmd] = q[1:]
	}
	if !ok {
		return nil, ErrNoMockResponse
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return append([]byte(nil), reply.data...), nil
}

// Wake implements Waker
func (m *MockTransport) Wake(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakeCount++
	return ctx.Err()
}

// Calls returns every command sent so far
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how often cmd was sent
func (m *MockTransport) CallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Cmd == cmd {
			n++
		}
	}
	return n
}

// LastArgs returns the arguments of the most recent cmd, or nil
func (m *MockTransport) LastArgs(cmd byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Cmd == cmd {
			return m.calls[i].Args
		}
	}
	return nil
}

// WakeCount returns how often Wake was called
func (m *MockTransport) WakeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakeCount
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected implements Transport
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var (
	_ Transport = (*MockTransport)(nil)
	_ Waker     = (*MockTransport)(nil)
)
