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
	"fmt"
	"strings"
)

// Command identifies a recognized operation.
type Command int

const (
	CommandNone Command = iota
	CommandScanUID
	CommandRead
	CommandWrite
	CommandEnroll
	CommandVersion
	CommandHelp
)

// Wire keywords
const (
	KeywordScanUID = "SCAN_UID"
	KeywordRead    = "READ"
	KeywordWrite   = "WRITE"
	KeywordEnroll  = "ENROLL"
	KeywordVersion = "VERSION"
	KeywordHelp    = "HELP"
)

// Keywords lists every accepted keyword in display order.
var Keywords = []string{
	KeywordScanUID, KeywordRead, KeywordWrite, KeywordEnroll, KeywordVersion, KeywordHelp,
}

// String returns the wire keyword for the command.
func (c Command) String() string {
	switch c {
	case CommandNone:
		return "NONE"
	case CommandScanUID:
		return KeywordScanUID
	case CommandRead:
		return KeywordRead
	case CommandWrite:
		return KeywordWrite
	case CommandEnroll:
		return KeywordEnroll
	case CommandVersion:
		return KeywordVersion
	case CommandHelp:
		return KeywordHelp
	default:
		return "UNKNOWN"
	}
}

// Grammar hints used in parse error details and HELP output.
const (
	usageScanUID = "SCAN_UID takes no arguments"
	usageRead    = "READ <key> where key is 192 hex characters"
	usageWrite   = "WRITE <key> <data> where key is 192 hex characters and data is 1024 hex characters"
	usageEnroll  = "ENROLL <key> where key is 192 hex characters"
	usageVersion = "VERSION takes no arguments"
	usageHelp    = "HELP [command]"
)

// ParsedCommand is the outcome of validating one command line. On success
// Code is set and ErrKind is ParseErrorNone; on failure Code is CommandNone
// and ErrKind/Detail describe the first violation found. Raw always holds
// the original line.
type ParsedCommand struct {
	Raw     string
	Detail  string
	Args    []string
	Code    Command
	ErrKind ParseErrorKind
}

// OK reports whether the line parsed into a valid command.
func (p ParsedCommand) OK() bool {
	return p.ErrKind == ParseErrorNone
}

// Arg returns argument i or an empty string if absent.
func (p ParsedCommand) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}

// Error renders the parse failure as "<CODE> - <detail> (Command: '<raw>')".
// It returns an empty string for a successful parse.
func (p ParsedCommand) Error() string {
	if p.OK() {
		return ""
	}
	return fmt.Sprintf("%s - %s (Command: '%s')", p.ErrKind, p.Detail, p.Raw)
}

// Parse validates a single command line. It never fails to return a result
// and has no side effects, so every rejection is reported in the returned
// value rather than as an error.
func Parse(line string) ParsedCommand {
	keyword, rest, _ := strings.Cut(line, " ")

	switch keyword {
	case KeywordScanUID:
		return parseNoArgs(line, rest, CommandScanUID, usageScanUID)
	case KeywordRead:
		return parseKeyOnly(line, rest, CommandRead, usageRead)
	case KeywordWrite:
		return parseWrite(line, rest)
	case KeywordEnroll:
		return parseKeyOnly(line, rest, CommandEnroll, usageEnroll)
	case KeywordVersion:
		return parseNoArgs(line, rest, CommandVersion, usageVersion)
	case KeywordHelp:
		cmd := ParsedCommand{Raw: line, Code: CommandHelp}
		if rest != "" {
			cmd.Args = []string{rest}
		}
		return cmd
	default:
		return failed(line, ParseErrorUnknownCommand,
			fmt.Sprintf("Unknown command '%s'. Valid commands: %s", keyword, strings.Join(Keywords, ", ")))
	}
}

func failed(line string, kind ParseErrorKind, detail string) ParsedCommand {
	return ParsedCommand{
		Raw:     line,
		Code:    CommandNone,
		ErrKind: kind,
		Detail:  detail,
	}
}

func parseNoArgs(line, rest string, code Command, usage string) ParsedCommand {
	if rest != "" {
		return failed(line, ParseErrorInvalidArgumentCount, "Expected: "+usage)
	}
	return ParsedCommand{Raw: line, Code: code}
}

func parseKeyOnly(line, rest string, code Command, usage string) ParsedCommand {
	if rest == "" {
		return failed(line, ParseErrorMissingArguments, "Expected: "+usage)
	}
	if kind, detail := checkHexField("key", rest, KeyHexLength); kind != ParseErrorNone {
		return failed(line, kind, detail)
	}
	return ParsedCommand{Raw: line, Code: code, Args: []string{rest}}
}

func parseWrite(line, rest string) ParsedCommand {
	if rest == "" {
		return failed(line, ParseErrorMissingArguments, "Expected: "+usageWrite)
	}
	key, data, found := strings.Cut(rest, " ")
	if !found {
		return failed(line, ParseErrorInvalidArgumentCount, "Expected: "+usageWrite)
	}
	if kind, detail := checkHexField("key", key, KeyHexLength); kind != ParseErrorNone {
		return failed(line, kind, detail)
	}
	if kind, detail := checkHexField("data", data, PayloadHexLength); kind != ParseErrorNone {
		return failed(line, kind, detail)
	}
	return ParsedCommand{Raw: line, Code: CommandWrite, Args: []string{key, data}}
}

// checkHexField applies the length check before the charset check.
func checkHexField(name, value string, want int) (kind ParseErrorKind, detail string) {
	if len(value) != want {
		return ParseErrorInvalidHexLength,
			fmt.Sprintf("%s must be exactly %d hex characters, got %d", name, want, len(value))
	}
	if !isHexString(value) {
		return ParseErrorInvalidHexFormat,
			fmt.Sprintf("%s must contain only hex characters (0-9, A-F)", name)
	}
	return ParseErrorNone, ""
}
