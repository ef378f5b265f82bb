package models

// VisibilityScope is the materialised routing jurisdiction of a verifier:
// which reported errata they may see and classify. All short-circuits every
// clause (RPC staff); an empty scope matches nothing.
type VisibilityScope struct {
	All     bool
	Areas   []string
	Streams []Stream
}

// IsEmpty reports whether no clause can match.
func (s VisibilityScope) IsEmpty() bool {
	return !s.All && len(s.Areas) == 0 && len(s.Streams) == 0
}

// Matches evaluates the scope against one RFC's metadata. The same clauses
// are rendered into SQL for list queries; both paths must agree.
func (s VisibilityScope) Matches(meta *RfcMetadata) bool {
	if s.All {
		return true
	}
	if meta == nil {
		return false
	}
	for _, area := range s.Areas {
		if meta.AreaAcronym == area || meta.AreaAssignment == area {
			return true
		}
	}
	for _, stream := range s.Streams {
		if meta.Stream == stream {
			return true
		}
	}
	return false
}
