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

import "errors"

// Runtime errors returned by Engine operations. They only occur after a
// command has been parsed successfully.
var (
	ErrPowerUp      = errors.New("reader power-up failed")
	ErrNoTag        = errors.New("no tag detected")
	ErrAuthFailed   = errors.New("sector authentication failed")
	ErrReadFailed   = errors.New("block read failed")
	ErrWriteFailed  = errors.New("block write failed")
	ErrEnrollFailed = errors.New("key enrollment failed")
	ErrInvalidKey   = errors.New("invalid key material")
	ErrInvalidData  = errors.New("invalid payload")
)

// ParseErrorKind classifies why a command line was rejected. Exactly one kind
// applies to a failed parse; ParseErrorNone marks success.
type ParseErrorKind int

const (
	ParseErrorNone ParseErrorKind = iota
	ParseErrorUnknownCommand
	ParseErrorInvalidArgumentCount
	ParseErrorInvalidHexFormat
	ParseErrorInvalidHexLength
	ParseErrorMissingArguments
)

// String returns the wire code for the kind.
func (k ParseErrorKind) String() string {
	switch k {
	case ParseErrorNone:
		return "NONE"
	case ParseErrorUnknownCommand:
		return "UNKNOWN_COMMAND"
	case ParseErrorInvalidArgumentCount:
		return "INVALID_ARGUMENT_COUNT"
	case ParseErrorInvalidHexFormat:
		return "INVALID_HEX_FORMAT"
	case ParseErrorInvalidHexLength:
		return "INVALID_HEX_LENGTH"
	case ParseErrorMissingArguments:
		return "MISSING_ARGUMENTS"
	default:
		return "UNKNOWN"
	}
}

// RuntimeCode is the fixed wire code reported when a card operation fails.
type RuntimeCode string

const (
	CodeNoTag       RuntimeCode = "NO_TAG"
	CodeAuthFailed  RuntimeCode = "AUTH_FAILED"
	CodeWriteFail   RuntimeCode = "WRITE_FAIL"
	CodeEnrollFail  RuntimeCode = "ENROLL_FAIL"
	CodeInternalErr RuntimeCode = "INTERNAL_ERROR"
)
