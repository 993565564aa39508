package systems

import "math/rand"

// NamePool hands out display names without repeats until every name has
// been used, then starts over.
type NamePool struct {
	names []string
	used  []bool
	left  int
	rng   *rand.Rand
}

// NewNamePool creates a pool over names.
func NewNamePool(names []string, rng *rand.Rand) *NamePool {
	p := &NamePool{
		names: names,
		used:  make([]bool, len(names)),
		rng:   rng,
	}
	p.Reset()
	return p
}

// Reset marks every name as available again.
func (p *NamePool) Reset() {
	for i := range p.used {
		p.used[i] = false
	}
	p.left = len(p.names)
}

// Draw returns a random unused name. An exhausted pool resets first.
// An empty pool returns "".
func (p *NamePool) Draw() string {
	if len(p.names) == 0 {
		return ""
	}
	if p.left == 0 {
		p.Reset()
	}

	// Pick the k-th unused name
	k := p.rng.Intn(p.left)
	for i, used := range p.used {
		if used {
			continue
		}
		if k == 0 {
			p.used[i] = true
			p.left--
			return p.names[i]
		}
		k--
	}
	return "" // unreachable while left matches used
}

// Remaining returns how many names can be drawn before the pool resets.
func (p *NamePool) Remaining() int {
	return p.left
}

// Used returns the names drawn since the last reset, in pool order.
func (p *NamePool) Used() []string {
	var out []string
	for i, used := range p.used {
		if used {
			out = append(out, p.names[i])
		}
	}
	return out
}

// MarkUsed restores a previously drawn set. Unknown names are ignored.
func (p *NamePool) MarkUsed(names []string) {
	want := make(map[string]int, len(names))
	for _, n := range names {
		want[n]++
	}
	for i, n := range p.names {
		if want[n] > 0 && !p.used[i] {
			p.used[i] = true
			p.left--
			want[n]--
		}
	}
}
