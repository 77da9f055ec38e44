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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	validKey  = strings.Repeat("A", KeyHexLength)
	validData = strings.Repeat("0F", PayloadSize)
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want ParsedCommand
	}{
		{line: "SCAN_UID", want: ParsedCommand{Raw: "SCAN_UID", Code: CommandScanUID}},
		{line: "VERSION", want: ParsedCommand{Raw: "VERSION", Code: CommandVersion}},
		{line: "HELP", want: ParsedCommand{Raw: "HELP", Code: CommandHelp}},
		{line: "HELP WRITE", want: ParsedCommand{Raw: "HELP WRITE", Code: CommandHelp, Args: []string{"WRITE"}}},
		{
			line: "READ " + validKey,
			want: ParsedCommand{Raw: "READ " + validKey, Code: CommandRead, Args: []string{validKey}},
		},
		{
			line: "ENROLL " + validKey,
			want: ParsedCommand{Raw: "ENROLL " + validKey, Code: CommandEnroll, Args: []string{validKey}},
		},
		{
			line: "WRITE " + validKey + " " + validData,
			want: ParsedCommand{
				Raw: "WRITE " + validKey + " " + validData, Code: CommandWrite, Args: []string{validKey, validData},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(strings.SplitN(tt.line, " ", 2)[0], func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, got.OK())
			assert.Empty(t, got.Error())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		line   string
		detail string
		want   ParseErrorKind
	}{
		{name: "empty_line", line: "", want: ParseErrorUnknownCommand},
		{name: "unknown", line: "FORMAT", want: ParseErrorUnknownCommand, detail: "Unknown command 'FORMAT'"},
		{name: "lowercase_keyword", line: "scan_uid", want: ParseErrorUnknownCommand},
		{name: "scan_with_arg", line: "SCAN_UID now", want: ParseErrorInvalidArgumentCount, detail: "Expected: SCAN_UID"},
		{name: "version_with_arg", line: "VERSION 2", want: ParseErrorInvalidArgumentCount},
		{name: "read_missing_key", line: "READ", want: ParseErrorMissingArguments, detail: "Expected: READ <key>"},
		{name: "enroll_missing_key", line: "ENROLL", want: ParseErrorMissingArguments},
		{name: "write_missing_args", line: "WRITE", want: ParseErrorMissingArguments},
		{name: "write_missing_data", line: "WRITE " + validKey, want: ParseErrorInvalidArgumentCount},
		{name: "read_one_short", line: "READ " + strings.Repeat("A", 191), want: ParseErrorInvalidHexLength, detail: "got 191"},
		{name: "read_one_long", line: "READ " + strings.Repeat("A", 193), want: ParseErrorInvalidHexLength},
		{name: "read_bad_digit", line: "READ G" + strings.Repeat("A", 191), want: ParseErrorInvalidHexFormat},
		{name: "read_extra_arg", line: "READ " + validKey + " 00", want: ParseErrorInvalidHexLength},
		{name: "length_before_charset", line: "READ " + strings.Repeat("G", 10), want: ParseErrorInvalidHexLength},
		{
			name: "write_short_data", line: "WRITE " + validKey + " " + strings.Repeat("0", 1022),
			want: ParseErrorInvalidHexLength, detail: "data must be exactly 1024",
		},
		{
			name: "write_bad_data", line: "WRITE " + validKey + " X" + strings.Repeat("0", 1023),
			want: ParseErrorInvalidHexFormat, detail: "data must contain only hex",
		},
		{
			name: "write_bad_key", line: "WRITE " + strings.Repeat("Z", 192) + " " + validData,
			want: ParseErrorInvalidHexFormat, detail: "key must contain only hex",
		},
		{name: "double_space", line: "READ  " + validKey, want: ParseErrorInvalidHexLength},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.line)
			assert.False(t, got.OK())
			assert.Equal(t, tt.want, got.ErrKind)
			assert.Equal(t, CommandNone, got.Code)
			assert.Equal(t, tt.line, got.Raw)
			assert.Contains(t, got.Detail, tt.detail)
		})
	}
}

func TestParse_WriteAcceptsExactlyFullPayload(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 64, 512, 1022, 1024} {
		data := strings.Repeat("1", n)
		got := Parse("WRITE " + validKey + " " + data)
		assert.Equal(t, n == PayloadHexLength, got.OK(), "data length %d", n)
	}
}

func TestParsedCommand_Error(t *testing.T) {
	t.Parallel()

	got := Parse("READ 12")
	want := "INVALID_HEX_LENGTH - key must be exactly 192 hex characters, got 2 (Command: 'READ 12')"
	assert.Equal(t, want, got.Error())

	got = Parse("PING")
	assert.Equal(t,
		"UNKNOWN_COMMAND - Unknown command 'PING'. Valid commands: SCAN_UID, READ, WRITE, ENROLL, VERSION, HELP "+
			"(Command: 'PING')",
		got.Error())
}

func TestParsedCommand_Arg(t *testing.T) {
	t.Parallel()

	cmd := ParsedCommand{Args: []string{"a", "b"}}
	assert.Equal(t, "a", cmd.Arg(0))
	assert.Equal(t, "b", cmd.Arg(1))
	assert.Empty(t, cmd.Arg(2))
	assert.Empty(t, cmd.Arg(-1))
}

func TestCommandAndKindStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WRITE", CommandWrite.String())
	assert.Equal(t, "NONE", CommandNone.String())
	assert.Equal(t, "UNKNOWN", Command(99).String())
	assert.Equal(t, "MISSING_ARGUMENTS", ParseErrorMissingArguments.String())
	assert.Equal(t, "INVALID_HEX_FORMAT", ParseErrorInvalidHexFormat.String())
	assert.Equal(t, "UNKNOWN", ParseErrorKind(42).String())
}
