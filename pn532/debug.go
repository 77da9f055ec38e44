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

package pn532

import (
	"log"

	"github.com/ZaparooProject/go-cardstore"
)

// debugf logs driver traffic when cardstore debugging is enabled. Key
// bytes are never passed here.
func debugf(format string, args ...any) {
	if cardstore.DebugEnabled() {
		log.Printf("[DEBUG] pn532: "+format, args...)
	}
}

func debugln(args ...any) {
	if cardstore.DebugEnabled() {
		log.Println(append([]any{"[DEBUG] pn532:"}, args...)...)
	}
}
