package migrate

// keySet is a set of identity values already claimed in the target.
type keySet map[string]struct{}

func newKeySet(seeds ...[]string) keySet {
	s := make(keySet)
	for _, seed := range seeds {
		for _, v := range seed {
			s[v] = struct{}{}
		}
	}
	return s
}

// tracker deduplicates records over one or more identity dimensions. A
// record is a duplicate when any of its keys is already claimed in the
// matching dimension. Dimensions may be shared between trackers, which is
// how dnsmasq keeps one address space for both families.
type tracker struct {
	dims []keySet
}

func newTracker(dims ...keySet) *tracker {
	return &tracker{dims: dims}
}

// seen reports whether any key collides with its dimension. keys[i] is
// checked against the i-th dimension; empty keys never collide.
func (t *tracker) seen(keys ...string) bool {
	for i, k := range keys {
		if i >= len(t.dims) || k == "" {
			continue
		}
		if _, ok := t.dims[i][k]; ok {
			return true
		}
	}
	return false
}

// accept claims every non-empty key.
func (t *tracker) accept(keys ...string) {
	for i, k := range keys {
		if i >= len(t.dims) || k == "" {
			continue
		}
		t.dims[i][k] = struct{}{}
	}
}

func (t *tracker) empty() bool {
	for _, d := range t.dims {
		if len(d) > 0 {
			return false
		}
	}
	return true
}
