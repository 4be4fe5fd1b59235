package logger

import (
	"strings"
	"testing"

	"github.com/theinternetftw/dmgmem/test"
)

func TestRepeatCollapse(t *testing.T) {
	l := newLogger(8)
	l.log("mbc", "ram disabled")
	l.log("mbc", "ram disabled")
	l.log("mbc", "ram disabled")
	l.log("rtc", "latch")

	test.DemandEquality(t, len(l.entries), 2)
	test.ExpectEquality(t, l.entries[0].Repeated, 2)

	w := &strings.Builder{}
	l.write(w)
	test.ExpectEquality(t, w.String(), "mbc: ram disabled (repeat x3)\nrtc: latch\n")
}

func TestMaxEntries(t *testing.T) {
	l := newLogger(4)
	for i := 0; i < 10; i++ {
		l.logf("hdma", "entry %d", i)
	}
	test.DemandEquality(t, len(l.entries), 4)
	test.ExpectEquality(t, l.entries[0].Detail, "entry 6")
	test.ExpectEquality(t, l.entries[3].Detail, "entry 9")
}

func TestTail(t *testing.T) {
	l := newLogger(8)
	l.log("a", "1")
	l.log("b", "2")
	l.log("c", "3")

	w := &strings.Builder{}
	l.tail(w, 2)
	test.ExpectEquality(t, w.String(), "b: 2\nc: 3\n")

	w.Reset()
	l.tail(w, 10)
	test.ExpectEquality(t, w.String(), "a: 1\nb: 2\nc: 3\n")
}

func TestEcho(t *testing.T) {
	l := newLogger(8)
	w := &strings.Builder{}
	l.echo = w
	l.log("sav", "loaded\n")
	l.log("sav", "loaded")
	test.ExpectEquality(t, w.String(), "sav: loaded\n")
}
