package models

// Area is an IETF technical area acronym used for verifier routing.
type Area string

const (
	AreaGen Area = "gen"
	AreaWit Area = "wit"
	AreaArt Area = "art"
	AreaOps Area = "ops"
	AreaRtg Area = "rtg"
	AreaInt Area = "int"
	AreaSec Area = "sec"
)

// VerifierAreas are the areas an IESG AD can be routed errata for.
var VerifierAreas = []Area{AreaGen, AreaWit, AreaArt, AreaOps, AreaRtg, AreaInt, AreaSec}

// ArtLegacyAliases are historical area acronyms absorbed by art. RFCs still
// carry them in their metadata, so art routing matches them too.
var ArtLegacyAliases = []string{"app", "rai"}

// RoleKind enumerates the datatracker role tuples this service understands.
type RoleKind int

const (
	RoleAdIesg RoleKind = iota
	RoleAdArea
	RoleChairIab
	RoleDelegateIab
	RoleChairIrtf
	RoleDelegateIrtf
	RoleChairRsab
	RoleDelegateRsab
	RoleChairIse
	RoleAuthRpc
)

// Role is one parsed role tuple. Area is set only for RoleAdArea.
type Role struct {
	Kind RoleKind
	Area Area
}

// RoleSet holds the parsed roles of a user. The raw role list is issued
// externally and free-form; only tuples this service understands survive
// parsing, everything else is dropped.
type RoleSet struct {
	roles map[Role]struct{}
}

// ParseRoles maps raw datatracker role tuples onto the closed variant set.
func ParseRoles(raw [][]string) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{})}
	for _, tuple := range raw {
		if len(tuple) != 2 {
			continue
		}
		group, org := tuple[0], tuple[1]
		switch group {
		case "ad":
			if org == "iesg" {
				set.add(Role{Kind: RoleAdIesg})
				continue
			}
			for _, area := range VerifierAreas {
				if org == string(area) {
					set.add(Role{Kind: RoleAdArea, Area: area})
					break
				}
			}
		case "chair":
			switch org {
			case "iab":
				set.add(Role{Kind: RoleChairIab})
			case "irtf":
				set.add(Role{Kind: RoleChairIrtf})
			case "rsab":
				set.add(Role{Kind: RoleChairRsab})
			case "ise":
				set.add(Role{Kind: RoleChairIse})
			}
		case "delegate_stream_manager":
			switch org {
			case "iab":
				set.add(Role{Kind: RoleDelegateIab})
			case "irtf":
				set.add(Role{Kind: RoleDelegateIrtf})
			case "rsab":
				set.add(Role{Kind: RoleDelegateRsab})
			}
		case "auth":
			if org == "rpc" {
				set.add(Role{Kind: RoleAuthRpc})
			}
		}
	}
	return set
}

func (s *RoleSet) add(r Role) {
	s.roles[r] = struct{}{}
}

// Has reports whether the exact role is present.
func (s RoleSet) Has(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// HasKind reports whether any role of the given kind is present.
func (s RoleSet) HasKind(kind RoleKind) bool {
	for r := range s.roles {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// Areas returns the concrete areas the user holds an AD role for.
func (s RoleSet) Areas() []Area {
	areas := make([]Area, 0, len(s.roles))
	for r := range s.roles {
		if r.Kind == RoleAdArea {
			areas = append(areas, r.Area)
		}
	}
	return areas
}

// Len returns the number of recognised roles.
func (s RoleSet) Len() int {
	return len(s.roles)
}
