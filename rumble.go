package dmgmem

// rumble follows the motor bit on rumble carts. Games vary the strength by
// pulsing the bit, so the fraction of "on" writes between polls is kept too.
type rumble struct {
	Motor    bool
	OnWrites int
	Writes   int
}

func (r *rumble) setMotor(on bool) {
	r.Motor = on
	r.Writes++
	if on {
		r.OnWrites++
	}
}

// strength returns the share of motor writes that engaged it since the last
// call, and starts a new count.
func (r *rumble) strength() float64 {
	if r.Writes == 0 {
		if r.Motor {
			return 1
		}
		return 0
	}
	s := float64(r.OnWrites) / float64(r.Writes)
	r.OnWrites, r.Writes = 0, 0
	return s
}
