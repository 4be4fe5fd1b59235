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
// Adapted from the test package of Gopher2600.

// Package test contains helpers for the package tests of the emulator core.
package test

import (
	"fmt"
	"testing"
)

func id(tags ...interface{}) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprint(tags...) + ": "
}

// ExpectEquality tests that v equals expectedValue. A failure is reported
// but the test continues.
func ExpectEquality[T comparable](t *testing.T, v T, expectedValue T, tags ...interface{}) bool {
	t.Helper()
	if v != expectedValue {
		t.Errorf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expectedValue)
		return false
	}
	return true
}

// DemandEquality is like ExpectEquality but a failure stops the test. Use it
// when later checks depend on the value, eg. a slice length before indexing.
func DemandEquality[T comparable](t *testing.T, v T, expectedValue T, tags ...interface{}) {
	t.Helper()
	if v != expectedValue {
		t.Fatalf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expectedValue)
	}
}

// DemandSuccess is like ExpectSuccess but a failure stops the test
func DemandSuccess(t *testing.T, v interface{}, tags ...interface{}) {
	t.Helper()
	if !ExpectSuccess(t, v, tags...) {
		t.Fatalf("%sa success value is demanded for type %T", id(tags...), v)
	}
}

// ExpectSuccess tests v for a success value suitable for its type:
//
//	bool  -> true
//	error -> nil
func ExpectSuccess(t *testing.T, v interface{}, tags ...interface{}) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if !v {
			t.Errorf("%sexpected success (bool)", id(tags...))
			return false
		}
	case error:
		if v != nil {
			t.Errorf("%sexpected success (error: %v)", id(tags...), v)
			return false
		}
	case nil:
		return true
	default:
		t.Fatalf("%sunsupported type (%T) for expectation testing", id(tags...), v)
		return false
	}

	return true
}

// ExpectFailure tests v for a failure value suitable for its type:
//
//	bool  -> false
//	error -> non-nil
func ExpectFailure(t *testing.T, v interface{}, tags ...interface{}) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if v {
			t.Errorf("%sexpected failure (bool)", id(tags...))
			return false
		}
	case error:
		if v == nil {
			t.Errorf("%sexpected failure (error)", id(tags...))
			return false
		}
	case nil:
		t.Errorf("%sexpected failure (nil)", id(tags...))
		return false
	default:
		t.Fatalf("%sunsupported type (%T) for expectation testing", id(tags...), v)
		return false
	}

	return true
}
