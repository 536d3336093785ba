package candidate

// Set is an unordered collection of candidate ids. The zero value is not usable;
// build one with NewSet.
type Set struct {
	m map[ID]struct{}
}

// NewSet creates a set holding ids.
func NewSet(ids ...ID) Set {
	s := Set{m: make(map[ID]struct{}, len(ids))}
	for _, id := range ids {
		s.m[id] = struct{}{}
	}
	return s
}

// Contains reports membership. Safe on a zero Set.
func (s Set) Contains(id ID) bool {
	_, ok := s.m[id]
	return ok
}

// Add inserts id and reports whether it was new.
func (s Set) Add(id ID) bool {
	if _, ok := s.m[id]; ok {
		return false
	}
	s.m[id] = struct{}{}
	return true
}

// Len returns the number of ids.
func (s Set) Len() int { return len(s.m) }

// Union returns a new set with the members of s and every other set.
func (s Set) Union(others ...Set) Set {
	size := len(s.m)
	for _, o := range others {
		size += len(o.m)
	}
	out := Set{m: make(map[ID]struct{}, size)}
	for id := range s.m {
		out.m[id] = struct{}{}
	}
	for _, o := range others {
		for id := range o.m {
			out.m[id] = struct{}{}
		}
	}
	return out
}

// IDs returns the members in unspecified order.
func (s Set) IDs() []ID {
	ids := make([]ID, 0, len(s.m))
	for id := range s.m {
		ids = append(ids, id)
	}
	return ids
}

// Strings returns the members as plain strings in unspecified order.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s.m))
	for id := range s.m {
		out = append(out, string(id))
	}
	return out
}
