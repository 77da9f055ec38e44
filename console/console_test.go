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

package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-cardstore"
)

// echoHandler replies with the line it was given.
type echoHandler struct {
	lines []string
}

func (e *echoHandler) Handle(_ context.Context, line string) cardstore.Response {
	e.lines = append(e.lines, line)
	return cardstore.OKResponse("ECHO", line)
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "scan_uid", want: "SCAN_UID"},
		{in: "  version\r", want: "VERSION"},
		{in: "\thelp read  ", want: "HELP READ"},
		{in: "   ", want: ""},
		{in: "read abcdef", want: "READ ABCDEF"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRun_BannerAndReplies(t *testing.T) {
	t.Parallel()

	h := &echoHandler{}
	in := strings.NewReader("version\n\n   \r\n scan_uid \r\nhelp\n")
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), h, in, &out))

	assert.Equal(t, []string{"VERSION", "SCAN_UID", "HELP"}, h.lines)
	assert.Equal(t,
		"OK SYSTEM_READY\nOK ECHO VERSION\nOK ECHO SCAN_UID\nOK ECHO HELP\n",
		out.String())
}

func TestRun_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	h := &echoHandler{}
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), h, strings.NewReader("version"), &out))
	assert.Equal(t, []string{"VERSION"}, h.lines)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &echoHandler{}
	var out bytes.Buffer

	err := Run(ctx, h, strings.NewReader("version\n"), &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.lines)
	assert.Equal(t, "OK SYSTEM_READY\n", out.String())
}

func TestRun_OverlongLineIsAnsweredAndSkipped(t *testing.T) {
	t.Parallel()

	h := &echoHandler{}
	var out bytes.Buffer
	in := strings.NewReader("write " + strings.Repeat("a", 3*maxLineLength) + "\nversion\n")

	require.NoError(t, Run(context.Background(), h, in, &out))

	require.Len(t, h.lines, 2)
	assert.Len(t, h.lines[0], maxLineLength)
	assert.True(t, strings.HasPrefix(h.lines[0], "WRITE AAAA"))
	assert.Equal(t, "VERSION", h.lines[1])
}

func TestRun_OverlongLineWithDispatcher(t *testing.T) {
	t.Parallel()

	d := cardstore.NewDispatcher(stubStore{})
	in := strings.NewReader("WRITE " + strings.Repeat("A", 5000) + "\nVERSION\n")
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), d, in, &out))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "ERR INVALID_ARGUMENT_COUNT - "), lines[1][:40])
	assert.Equal(t, "OK VERSION 9.9.9", lines[2])
}

func TestRun_OverlongLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	h := &echoHandler{}
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), h, strings.NewReader(strings.Repeat("B", maxLineLength+10)), &out))
	require.Len(t, h.lines, 1)
	assert.Len(t, h.lines[0], maxLineLength)
}

func TestRun_WriteFailure(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &echoHandler{}, strings.NewReader("version\n"), failingWriter{})
	require.ErrorIs(t, err, errWrite)
}

func TestRun_WithDispatcher(t *testing.T) {
	t.Parallel()

	d := cardstore.NewDispatcher(stubStore{})
	in := strings.NewReader("version\nbogus\nread " + strings.Repeat("a", cardstore.KeyHexLength) + "\n")
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), d, in, &out))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "OK SYSTEM_READY", lines[0])
	assert.Equal(t, "OK VERSION 9.9.9", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "ERR UNKNOWN_COMMAND - "), lines[2])
	assert.Equal(t, "OK DATA "+strings.Repeat("0", cardstore.PayloadHexLength), lines[3])
}

type stubStore struct{}

func (stubStore) ScanUID(context.Context) (string, error) { return "", cardstore.ErrNoTag }

func (stubStore) ReadData(_ context.Context, key string) (string, error) {
	if key != strings.Repeat("A", cardstore.KeyHexLength) {
		return "", cardstore.ErrInvalidKey
	}
	return strings.Repeat("0", cardstore.PayloadHexLength), nil
}

func (stubStore) WriteData(context.Context, string, string) error { return nil }

func (stubStore) EnrollKey(context.Context, string) error { return nil }

func (stubStore) Version() string { return "9.9.9" }
