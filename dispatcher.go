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
	"fmt"
	"strings"
)

// ReadyBanner is sent once when a command link comes up.
var ReadyBanner = OKResponse("SYSTEM_READY")

// Store is the set of card operations the Dispatcher drives. *Engine
// implements it.
type Store interface {
	ScanUID(ctx context.Context) (string, error)
	ReadData(ctx context.Context, key string) (string, error)
	WriteData(ctx context.Context, key, data string) error
	EnrollKey(ctx context.Context, key string) error
	Version() string
}

var _ Store = (*Engine)(nil)

// Dispatcher turns command lines into responses.
type Dispatcher struct {
	store Store
}

// NewDispatcher creates a Dispatcher over store.
func NewDispatcher(store Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// Handle parses line, runs the matching operation and returns its reply.
// Parse failures never reach the store.
func (d *Dispatcher) Handle(ctx context.Context, line string) Response {
	cmd := Parse(line)
	if !cmd.OK() {
		debugf("dispatch: rejected %q: %s", line, cmd.ErrKind)
		return ParseErrorResponse(cmd)
	}
	return d.execute(ctx, cmd)
}

// HandleLine is Handle rendered to wire text.
func (d *Dispatcher) HandleLine(ctx context.Context, line string) string {
	return d.Handle(ctx, line).String()
}

func (d *Dispatcher) execute(ctx context.Context, cmd ParsedCommand) Response {
	switch cmd.Code {
	case CommandScanUID:
		uid, err := d.store.ScanUID(ctx)
		if err != nil || uid == "" {
			debugf("dispatch: SCAN_UID failed: %v", err)
			return RuntimeErrorResponse(CodeNoTag)
		}
		return OKResponse("UID", uid)
	case CommandRead:
		data, err := d.store.ReadData(ctx, cmd.Arg(0))
		if err != nil || data == "" {
			debugf("dispatch: READ failed: %v", err)
			return RuntimeErrorResponse(CodeAuthFailed)
		}
		return OKResponse("DATA", data)
	case CommandWrite:
		if err := d.store.WriteData(ctx, cmd.Arg(0), cmd.Arg(1)); err != nil {
			debugf("dispatch: WRITE failed: %v", err)
			return RuntimeErrorResponse(CodeWriteFail)
		}
		return OKResponse("WRITE_DONE")
	case CommandEnroll:
		if err := d.store.EnrollKey(ctx, cmd.Arg(0)); err != nil {
			debugf("dispatch: ENROLL failed: %v", err)
			return RuntimeErrorResponse(CodeEnrollFail)
		}
		return OKResponse("ENROLL_DONE")
	case CommandVersion:
		return OKResponse("VERSION", d.store.Version())
	case CommandHelp:
		return OKResponse("HELP", HelpText(cmd.Arg(0)))
	default:
		debugf("dispatch: no handler for command %d", cmd.Code)
		return RuntimeErrorResponse(CodeInternalErr)
	}
}

// HelpText returns the usage for topic, or a summary of all commands when
// topic is empty or unknown.
func HelpText(topic string) string {
	switch strings.ToUpper(strings.TrimSpace(topic)) {
	case "":
		return "Commands: " + strings.Join(Keywords, ", ") + ". Use HELP <command> for details"
	case KeywordScanUID:
		return usageScanUID + "; replies OK UID <hex> or ERR NO_TAG"
	case KeywordRead:
		return usageRead + "; replies OK DATA <1024 hex> or ERR AUTH_FAILED"
	case KeywordWrite:
		return usageWrite + "; replies OK WRITE_DONE or ERR WRITE_FAIL"
	case KeywordEnroll:
		return usageEnroll + "; re-keys all sectors from the factory key and replies " +
			"OK ENROLL_DONE or ERR ENROLL_FAIL. A failed enrollment is not rolled back"
	case KeywordVersion:
		return usageVersion + "; replies OK VERSION <text>"
	case KeywordHelp:
		return usageHelp + "; replies OK HELP <text>"
	default:
		return fmt.Sprintf("No help for '%s'. Commands: %s", topic, strings.Join(Keywords, ", "))
	}
}
