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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFrame_GetFirmwareVersion(t *testing.T) {
	t.Parallel()

	got, err := BuildFrame(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00}, got)
}

func TestBuildFrame_ChecksumsValidate(t *testing.T) {
	t.Parallel()

	args := []byte{0x01, 0x60, 0x07, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6}
	got, err := BuildFrame(0x40, args)
	require.NoError(t, err)

	length := got[3]
	assert.Equal(t, byte(2+len(args)), length)
	assert.False(t, ValidateChecksum(got[3:5]), "length checksum")
	assert.False(t, ValidateChecksum(got[5:5+int(length)+1]), "data checksum")
	assert.Equal(t, byte(Postamble), got[len(got)-1])
}

func TestBuildFrame_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := BuildFrame(0x40, make([]byte, MaxFrameDataLength))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func responseFrame(data ...byte) []byte {
	payload := append([]byte{Pn532ToHost}, data...)
	frm := []byte{Preamble, StartCode1, StartCode2, byte(len(payload)), CalculateLengthChecksum(byte(len(payload)))}
	frm = append(frm, payload...)
	return append(frm, CalculateDataChecksum(Pn532ToHost, data), Postamble)
}

func TestExtractFrameData(t *testing.T) {
	t.Parallel()

	firmware := responseFrame(0x03, 0x32, 0x01, 0x06, 0x07)

	corruptData := responseFrame(0x41, 0x00)
	corruptData[len(corruptData)-2]++

	corruptLen := responseFrame(0x41, 0x00)
	corruptLen[4]++

	wrongTFI := responseFrame(0x41, 0x00)
	wrongTFI[5] = HostToPn532
	wrongTFI[len(wrongTFI)-2] = CalculateDataChecksum(HostToPn532, []byte{0x41, 0x00})

	tests := []struct {
		name    string
		buf     []byte
		want    []byte
		wantErr error
	}{
		{name: "firmware", buf: firmware, want: []byte{0x03, 0x32, 0x01, 0x06, 0x07}},
		{name: "leading_ready_byte", buf: append([]byte{0x01}, firmware...), want: []byte{0x03, 0x32, 0x01, 0x06, 0x07}},
		{name: "no_start_code", buf: []byte{0x01, 0x02, 0x03}, wantErr: ErrFrameIncomplete},
		{name: "truncated", buf: firmware[:7], wantErr: ErrFrameIncomplete},
		{name: "bad_data_checksum", buf: corruptData, wantErr: ErrChecksumMismatch},
		{name: "bad_length_checksum", buf: corruptLen, wantErr: ErrChecksumMismatch},
		{name: "wrong_direction", buf: wrongTFI, wantErr: ErrFrameCorrupted},
		{name: "application_error", buf: []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00}, wantErr: ErrApplicationError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractFrameData(tt.buf)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAck(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAck(AckFrame))
	assert.True(t, IsAck(append(append([]byte{}, AckFrame...), 0x00, 0x00)))
	assert.False(t, IsAck(NackFrame))
	assert.False(t, IsAck(AckFrame[:4]))
}
