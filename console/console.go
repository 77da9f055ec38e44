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

// Package console runs the line protocol over a byte stream such as a
// serial port or stdin.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ZaparooProject/go-cardstore"
)

// maxLineLength bounds one command line. The longest valid line is a WRITE:
// keyword, key, data and two separators. Longer lines are cut here and the
// remainder up to the next newline is discarded.
const maxLineLength = 4096

// Handler answers one normalized command line. *cardstore.Dispatcher
// implements it.
type Handler interface {
	Handle(ctx context.Context, line string) cardstore.Response
}

var _ Handler = (*cardstore.Dispatcher)(nil)

// Normalize trims surrounding whitespace and upper-cases line, the way the
// host link has always been read.
func Normalize(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}

// Run writes the ready banner to w, then answers every non-blank line read
// from r with exactly one reply line. A line longer than maxLineLength is
// answered from its first maxLineLength bytes and the loop carries on. It
// returns nil when r reaches EOF and ctx.Err() once ctx is cancelled
// between lines.
func Run(ctx context.Context, h Handler, r io.Reader, w io.Writer) error {
	if err := writeLine(w, cardstore.ReadyBanner.String()); err != nil {
		return err
	}

	br := bufio.NewReaderSize(r, maxLineLength)
	for {
		raw, truncated, err := readLine(br)
		if raw == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		line := Normalize(raw)
		if line != "" {
			keyword, _, _ := strings.Cut(line, " ")
			if truncated {
				debugf("rx %s cut to %d bytes", keyword, maxLineLength)
			} else {
				debugf("rx %s (%d bytes)", keyword, len(line))
			}
			if werr := writeLine(w, h.Handle(ctx, line).String()); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}
	}
}

// readLine returns the next line without its terminator. When the line does
// not fit the reader's buffer, the buffered prefix is returned with
// truncated set and the rest of the line is consumed.
func readLine(br *bufio.Reader) (line string, truncated bool, err error) {
	buf, err := br.ReadSlice('\n')
	line = strings.TrimSuffix(string(buf), "\n")
	for errors.Is(err, bufio.ErrBufferFull) {
		truncated = true
		_, err = br.ReadSlice('\n')
	}
	return line, truncated, err
}

func writeLine(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("failed to write reply: %w", err)
	}
	return nil
}

func debugf(format string, args ...any) {
	if cardstore.DebugEnabled() {
		log.Printf("[DEBUG] console: "+format, args...)
	}
}
