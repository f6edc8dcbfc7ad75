package membership

import "maps"

// OpenState records which shelves are expanded, keyed by shelf key.
type OpenState map[string]bool

// IsOpen reports whether key is expanded. Unknown keys are closed.
func (s OpenState) IsOpen(key string) bool {
	return s[key]
}

// Reconcile adds every key of keys that s does not know yet, closed, and
// returns the added keys in the order given. Stored keys are left as they
// are, including ones whose shelf no longer exists.
func (s OpenState) Reconcile(keys []string) []string {
	var added []string
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			s[k] = false
			added = append(added, k)
		}
	}
	return added
}

// Toggle flips key and returns its new state.
func (s OpenState) Toggle(key string) bool {
	s[key] = !s[key]
	return s[key]
}

// Clone returns an independent copy.
func (s OpenState) Clone() OpenState {
	if s == nil {
		return OpenState{}
	}
	return maps.Clone(s)
}
