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

import "strings"

// Status is the leading token of every response line.
type Status string

const (
	StatusOK  Status = "OK"
	StatusErr Status = "ERR"
)

// Response is one rendered reply.
type Response struct {
	Status Status
	Fields []string
}

// String renders the response as "<STATUS> <field> <field>...".
func (r Response) String() string {
	if len(r.Fields) == 0 {
		return string(r.Status)
	}
	return string(r.Status) + " " + strings.Join(r.Fields, " ")
}

// OKResponse builds a success reply.
func OKResponse(fields ...string) Response {
	return Response{Status: StatusOK, Fields: fields}
}

// RuntimeErrorResponse builds "ERR <code>".
func RuntimeErrorResponse(code RuntimeCode) Response {
	return Response{Status: StatusErr, Fields: []string{string(code)}}
}

// ParseErrorResponse builds "ERR <CODE> - <detail> (Command: '<original>')".
func ParseErrorResponse(cmd ParsedCommand) Response {
	return Response{Status: StatusErr, Fields: []string{cmd.Error()}}
}
