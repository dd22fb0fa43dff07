package linear

// mulberry32 is a tiny seeded PRNG. Its sequence is fully defined by the seed,
// so shuffles and trained models are reproducible across platforms and releases.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

// next returns a float in [0,1)
func (r *mulberry32) next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// shuffle permutes idx in place with Fisher-Yates
func (r *mulberry32) shuffle(idx []int) {
	for i := len(idx) - 1; i > 0; i-- {
		j := int(r.next() * float64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
}
