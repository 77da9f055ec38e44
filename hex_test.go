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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToHex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		data []byte
	}{
		{name: "empty", data: []byte{}, want: ""},
		{name: "single_byte", data: []byte{0x0A}, want: "0A"},
		{name: "uppercase", data: []byte{0xDE, 0xAD, 0xBE, 0xEF}, want: "DEADBEEF"},
		{name: "leading_zero_kept", data: []byte{0x00, 0x01}, want: "0001"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := BytesToHex(tt.data)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 2*len(tt.data))
		})
	}
}

func TestHexRoundTrip(t *testing.T) {
	t.Parallel()

	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}

	for _, data := range [][]byte{{}, {0x00}, {0xFF, 0x00, 0x7F}, all} {
		got, err := HexToBytes(BytesToHex(data))
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestHexToBytes_Invalid(t *testing.T) {
	t.Parallel()

	_, err := HexToBytes("ABC")
	require.Error(t, err)
	_, err = HexToBytes("ZZ")
	require.Error(t, err)
}

func TestIsHexString(t *testing.T) {
	t.Parallel()

	assert.True(t, isHexString("0123456789ABCDEFabcdef"))
	assert.True(t, isHexString(""))
	assert.False(t, isHexString("G"))
	assert.False(t, isHexString("AB CD"))
	assert.False(t, isHexString("0x12"))
}
