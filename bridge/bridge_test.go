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

package bridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-cardstore"
	testutil "github.com/ZaparooProject/go-cardstore/internal/testing"
)

func dial(t *testing.T, h *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	assert.Equal(t, "OK SYSTEM_READY", readText(t, conn))
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msgType, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, msgType)
	return string(msg)
}

func roundTrip(t *testing.T, conn *websocket.Conn, line string) string {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(line)))
	return readText(t, conn)
}

func newVirtualServer(t *testing.T) (*Server, *testutil.VirtualTag) {
	t.Helper()
	tag := testutil.NewVirtualMIFARE1K(nil)
	engine, err := cardstore.NewEngine(tag, cardstore.WithSettleDelay(0))
	require.NoError(t, err)
	require.NoError(t, engine.Init(context.Background()))
	return New(cardstore.NewDispatcher(engine)), tag
}

func TestServer_Commands(t *testing.T) {
	t.Parallel()

	s, tag := newVirtualServer(t)
	conn := dial(t, s)

	key := strings.Repeat("0A", cardstore.KeySize)
	data := "BEEF" + strings.Repeat("0", cardstore.PayloadHexLength-4)

	assert.Equal(t, "OK VERSION "+cardstore.DefaultVersion, roundTrip(t, conn, "version"))
	assert.Equal(t, "OK UID "+tag.GetUIDString(), roundTrip(t, conn, " SCAN_UID "))
	assert.Equal(t, "OK ENROLL_DONE", roundTrip(t, conn, "enroll "+key))
	assert.Equal(t, "OK WRITE_DONE", roundTrip(t, conn, "write "+strings.ToLower(key)+" "+data))
	assert.Equal(t, "OK DATA "+data, roundTrip(t, conn, "READ "+key))
	assert.True(t, strings.HasPrefix(roundTrip(t, conn, "dance"), "ERR UNKNOWN_COMMAND - "))
	assert.False(t, tag.Powered())
}

func TestServer_IgnoresBlankAndBinaryMessages(t *testing.T) {
	t.Parallel()

	s, _ := newVirtualServer(t)
	conn := dial(t, s)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("VERSION")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("   ")))
	assert.Equal(t, "OK VERSION "+cardstore.DefaultVersion, roundTrip(t, conn, "VERSION"))
}

func TestServer_MultipleClients(t *testing.T) {
	t.Parallel()

	s, tag := newVirtualServer(t)
	a := dial(t, s)
	b := dial(t, s)

	assert.Equal(t, "OK UID "+tag.GetUIDString(), roundTrip(t, a, "SCAN_UID"))
	tag.Remove()
	assert.Equal(t, "ERR NO_TAG", roundTrip(t, b, "SCAN_UID"))
}

func TestServer_RejectsPlainHTTP(t *testing.T) {
	t.Parallel()

	s, _ := newVirtualServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", Path, nil))
	assert.Equal(t, 400, rec.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	s, _ := newVirtualServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
