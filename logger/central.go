// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.
//
// Adapted from the logger package of Gopher2600.

package logger

import "io"

// only one log for the whole core. there is only ever one mutator (the
// emulation loop), so no locking.
var central *logger

// maximum number of entries kept in the central log
const maxCentral = 256

func init() {
	central = newLogger(maxCentral)
}

// Log adds an entry to the central log
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central log
func Logf(tag, detail string, args ...interface{}) {
	central.logf(tag, detail, args...)
}

// Clear removes all entries from the central log
func Clear() {
	central.clear()
}

// Write writes every entry to output
func Write(output io.Writer) {
	central.write(output)
}

// Tail writes the last number entries to output
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho prints new entries to output as they arrive. A nil output turns
// echoing off.
func SetEcho(output io.Writer) {
	central.echo = output
}

// Entries returns a copy of the current log
func Entries() []Entry {
	e := make([]Entry, len(central.entries))
	copy(e, central.entries)
	return e
}
