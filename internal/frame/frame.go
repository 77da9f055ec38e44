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
	"bytes"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrFrameTooLarge    = errors.New("frame data too large")
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	ErrFrameIncomplete  = errors.New("frame incomplete")
	ErrApplicationError = errors.New("PN532 application error frame")
)

// CalculateChecksum returns the 8-bit sum of data.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidateChecksum reports whether data fails the zero-sum rule and should
// therefore be NACKed.
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// CalculateDataChecksum returns the DCS byte for tfi followed by data.
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// CalculateLengthChecksum returns the LCS byte for length.
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// BuildFrame builds a normal information frame carrying cmd and args from
// the host to the PN532.
func BuildFrame(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args) // TFI + cmd + args
	if dataLen > MaxFrameDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, dataLen)
	}

	frm := make([]byte, 0, frameOverhead+dataLen)
	frm = append(frm, Preamble, StartCode1, StartCode2)
	frm = append(frm, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	frm = append(frm, HostToPn532, cmd)
	frm = append(frm, args...)
	frm = append(frm, CalculateDataChecksum(HostToPn532, append([]byte{cmd}, args...)), Postamble)
	return frm, nil
}

// IsAck reports whether buf starts with an ACK frame.
func IsAck(buf []byte) bool {
	return len(buf) >= len(AckFrame) && bytes.Equal(buf[:len(AckFrame)], AckFrame)
}

// FindFrameStart returns the offset of the length byte following the first
// 0x00 0xFF start code in buf.
func FindFrameStart(buf []byte) (int, error) {
	for off := 0; off < len(buf)-1; off++ {
		if buf[off] == StartCode1 && buf[off+1] == StartCode2 {
			return off + 2, nil
		}
	}
	return 0, ErrFrameIncomplete
}

// ExtractFrameData parses a PN532-to-host frame in buf and returns its
// payload after the TFI byte, starting with the response code.
func ExtractFrameData(buf []byte) ([]byte, error) {
	off, err := FindFrameStart(buf)
	if err != nil {
		return nil, err
	}
	if off+2 > len(buf) {
		return nil, ErrFrameIncomplete
	}

	length := buf[off]
	if buf[off]+buf[off+1] != 0 {
		return nil, fmt.Errorf("%w: length checksum", ErrChecksumMismatch)
	}
	if length == 0x01 && off+3 <= len(buf) && buf[off+2] == ErrorFrame {
		return nil, ErrApplicationError
	}

	start := off + 2
	end := start + int(length)
	if end+1 > len(buf) {
		return nil, ErrFrameIncomplete
	}
	if ValidateChecksum(buf[start : end+1]) {
		return nil, fmt.Errorf("%w: data checksum", ErrChecksumMismatch)
	}
	if length < 1 || buf[start] != Pn532ToHost {
		return nil, fmt.Errorf("%w: unexpected TFI", ErrFrameCorrupted)
	}

	out := make([]byte, end-start-1)
	copy(out, buf[start+1:end])
	return out, nil
}
