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

// Package bridge exposes the line protocol over websocket: one command per
// text message, one reply per command.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZaparooProject/go-cardstore"
	"github.com/ZaparooProject/go-cardstore/console"
)

// Path is where the websocket endpoint is mounted.
const Path = "/ws"

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	maxMessageSize  = 4096
)

// Server serves the command protocol to websocket clients. All clients
// share one handler; the Engine behind it serializes card sessions.
type Server struct {
	handler  console.Handler
	upgrader websocket.Upgrader
}

// New creates a Server that answers messages with h.
func New(h console.Handler) *Server {
	return &Server{
		handler: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler with the websocket endpoint mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWS)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Printf("[ws] shutdown: %v", err)
		}
	}()

	log.Printf("[ws] listening on %s%s", addr, Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket bridge: %w", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxMessageSize)

	log.Printf("[ws] client connected from %s", r.RemoteAddr)
	defer log.Printf("[ws] client %s disconnected", r.RemoteAddr)

	if err := send(conn, cardstore.ReadyBanner.String()); err != nil {
		return
	}

	ctx := r.Context()
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		line := console.Normalize(string(msg))
		if line == "" {
			continue
		}
		if err := send(conn, s.handler.Handle(ctx, line).String()); err != nil {
			log.Printf("[ws] write error: %v", err)
			return
		}
	}
}

func send(conn *websocket.Conn, text string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}
