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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore records calls and returns canned results.
type stubStore struct {
	err     error
	uid     string
	data    string
	calls   []string
	lastKey string
}

func (s *stubStore) ScanUID(context.Context) (string, error) {
	s.calls = append(s.calls, "scan")
	return s.uid, s.err
}

func (s *stubStore) ReadData(_ context.Context, key string) (string, error) {
	s.calls = append(s.calls, "read")
	s.lastKey = key
	return s.data, s.err
}

func (s *stubStore) WriteData(_ context.Context, key, _ string) error {
	s.calls = append(s.calls, "write")
	s.lastKey = key
	return s.err
}

func (s *stubStore) EnrollKey(_ context.Context, key string) error {
	s.calls = append(s.calls, "enroll")
	s.lastKey = key
	return s.err
}

func (*stubStore) Version() string { return "9.9.9" }

var errStub = errors.New("hardware said no")

func TestDispatcher_Replies(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("AB", PayloadSize)

	tests := []struct {
		name  string
		store *stubStore
		line  string
		want  string
	}{
		{name: "scan_ok", store: &stubStore{uid: "12345678"}, line: "SCAN_UID", want: "OK UID 12345678"},
		{name: "scan_no_tag", store: &stubStore{err: ErrNoTag}, line: "SCAN_UID", want: "ERR NO_TAG"},
		{name: "scan_empty_uid", store: &stubStore{}, line: "SCAN_UID", want: "ERR NO_TAG"},
		{name: "read_ok", store: &stubStore{data: data}, line: "READ " + validKey, want: "OK DATA " + data},
		{name: "read_fail", store: &stubStore{err: errStub}, line: "READ " + validKey, want: "ERR AUTH_FAILED"},
		{name: "read_no_tag", store: &stubStore{err: ErrNoTag}, line: "READ " + validKey, want: "ERR AUTH_FAILED"},
		{name: "write_ok", store: &stubStore{}, line: "WRITE " + validKey + " " + validData, want: "OK WRITE_DONE"},
		{name: "write_fail", store: &stubStore{err: errStub}, line: "WRITE " + validKey + " " + validData, want: "ERR WRITE_FAIL"},
		{name: "enroll_ok", store: &stubStore{}, line: "ENROLL " + validKey, want: "OK ENROLL_DONE"},
		{name: "enroll_fail", store: &stubStore{err: errStub}, line: "ENROLL " + validKey, want: "ERR ENROLL_FAIL"},
		{name: "version", store: &stubStore{}, line: "VERSION", want: "OK VERSION 9.9.9"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDispatcher(tt.store)
			assert.Equal(t, tt.want, d.HandleLine(context.Background(), tt.line))
		})
	}
}

func TestDispatcher_ParseErrorsNeverReachStore(t *testing.T) {
	t.Parallel()

	store := &stubStore{uid: "12345678"}
	d := NewDispatcher(store)

	for _, line := range []string{"", "NOPE", "READ", "READ 00", "SCAN_UID x", "WRITE " + validKey} {
		resp := d.Handle(context.Background(), line)
		assert.Equal(t, StatusErr, resp.Status, line)
		assert.True(t, strings.HasSuffix(resp.String(), "(Command: '"+line+"')"), resp.String())
	}
	assert.Empty(t, store.calls)
}

func TestDispatcher_PassesArguments(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	d := NewDispatcher(store)
	key := strings.Repeat("1", KeyHexLength)

	d.HandleLine(context.Background(), "ENROLL "+key)
	assert.Equal(t, key, store.lastKey)
	assert.Equal(t, []string{"enroll"}, store.calls)
}

func TestDispatcher_Help(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&stubStore{})
	ctx := context.Background()

	got := d.HandleLine(ctx, "HELP")
	assert.True(t, strings.HasPrefix(got, "OK HELP Commands: SCAN_UID, READ"), got)

	got = d.HandleLine(ctx, "HELP ENROLL")
	assert.Contains(t, got, "not rolled back")

	got = d.HandleLine(ctx, "HELP FOO")
	assert.Contains(t, got, "No help for 'FOO'")
}

func TestHelpText_EveryKeyword(t *testing.T) {
	t.Parallel()

	for _, kw := range Keywords {
		text := HelpText(kw)
		assert.True(t, strings.HasPrefix(text, kw), "%s: %s", kw, text)
		assert.Equal(t, text, HelpText(strings.ToLower(kw)))
	}
}

func TestExecute_UnhandledCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code Command
	}{
		{name: "None", code: CommandNone},
		{name: "Out_Of_Range", code: Command(99)},
		{name: "Negative", code: Command(-1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDispatcher(&stubStore{})
			var resp Response
			require.NotPanics(t, func() {
				resp = d.execute(context.Background(), ParsedCommand{Code: tt.code})
			})
			assert.Equal(t, "ERR INTERNAL_ERROR", resp.String())
		})
	}
}

func TestResponse_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "OK SYSTEM_READY", ReadyBanner.String())
	assert.Equal(t, "OK", OKResponse().String())
	assert.Equal(t, "OK UID 01", OKResponse("UID", "01").String())
	assert.Equal(t, "ERR WRITE_FAIL", RuntimeErrorResponse(CodeWriteFail).String())
	assert.Equal(t, "ERR MISSING_ARGUMENTS - Expected: "+usageRead+" (Command: 'READ')",
		ParseErrorResponse(Parse("READ")).String())
}
