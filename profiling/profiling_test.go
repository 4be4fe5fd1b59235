package profiling

import (
	"testing"

	"github.com/theinternetftw/dmgmem/test"
)

func TestOptions(t *testing.T) {
	_, ok := options("", "")
	test.ExpectFailure(t, ok)

	_, ok = options("flamegraph", "")
	test.ExpectFailure(t, ok)

	for _, mode := range []string{"cpu", "mem", "block"} {
		opts, ok := options(mode, "/tmp")
		test.ExpectSuccess(t, ok, mode)
		test.ExpectEquality(t, len(opts), 3, mode)
	}
}

func TestStartDisabled(t *testing.T) {
	t.Setenv(EnvMode, "")
	s := Start()
	_, isNoop := s.(noop)
	test.ExpectSuccess(t, isNoop)
	s.Stop()
}
