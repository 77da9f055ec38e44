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

/*
Package cardstore turns a MIFARE Classic 1K card into a small keyed data
store driven by line-based text commands.

A host sends one command per line; Parse validates it into a ParsedCommand,
the Dispatcher runs the matching Engine operation and renders a single reply
line. The Engine maps a 96-byte key (one 6-byte sub-key per sector) and a
512-byte payload onto the card's 16 sectors, two 16-byte data blocks each.

Commands:

	SCAN_UID                -> OK UID <hex>         | ERR NO_TAG
	READ <key>              -> OK DATA <1024 hex>   | ERR AUTH_FAILED
	WRITE <key> <data>      -> OK WRITE_DONE        | ERR WRITE_FAIL
	ENROLL <key>            -> OK ENROLL_DONE       | ERR ENROLL_FAIL
	VERSION                 -> OK VERSION <text>
	HELP [command]          -> OK HELP <text>

Keys are 192 hex characters, data is 1024 hex characters. Lines that fail
validation are answered with

	ERR <CODE> - <detail> (Command: '<original line>')

Basic Usage:

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	pin, err := pn532.NewGPIOPowerPin("GPIO17", false)
	if err != nil {
	    log.Fatal(err)
	}
	device, err := pn532.New(transport, pn532.WithPowerPin(pin))
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	engine, err := cardstore.NewEngine(device)
	if err != nil {
	    log.Fatal(err)
	}
	if err := engine.Init(ctx); err != nil {
	    log.Fatal(err)
	}

	d := cardstore.NewDispatcher(engine)
	fmt.Println(d.HandleLine(ctx, "SCAN_UID"))

Storage Layout:

Sector i holds payload bytes [32*i, 32*i+32) in blocks 4*i+1 and 4*i+2 and
is authenticated with key B = sub-key i. Block 4 stores the payload length as
a big-endian uint16 so reads and writes only touch the sectors in use. A
stored length of zero is a tombstone: READ returns all zeros without reading
any data sector. An unreadable length is treated as the full 512 bytes.

Power:

Every card operation powers the module up, waits for it to settle, runs the
firmware handshake, and powers it down again before returning, whatever the
outcome.

Enrollment:

ENROLL rewrites all 16 sector trailers, unlocking each with the factory key.
It stops at the first failure and does not roll back: a partially enrolled
card has new keys on the sectors before the failing one and factory keys on
the rest. Re-issue ENROLL only after checking which sectors still accept the
factory key.

Thread Safety:

Engine operations are serialized internally; a Dispatcher may be shared by
several command links.
*/
package cardstore
