package catalog

import "math/rand/v2"

// Sample returns up to count distinct questions matching f in uniformly
// shuffled order. When fewer than count questions match, all of them are
// returned. A nil rng uses the global source.
func (c *Catalog) Sample(count int, f Filter, rng *rand.Rand) []Question {
	if count <= 0 {
		return nil
	}

	pool := c.filter(f)
	if len(pool) == 0 {
		return nil
	}

	swap := func(i, j int) { pool[i], pool[j] = pool[j], pool[i] }
	if rng != nil {
		rng.Shuffle(len(pool), swap)
	} else {
		rand.Shuffle(len(pool), swap)
	}

	if count < len(pool) {
		pool = pool[:count]
	}
	return pool
}
