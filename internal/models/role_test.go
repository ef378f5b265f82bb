package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRolesDropsUnknownTuples(t *testing.T) {
	set := ParseRoles([][]string{
		{"ad", "iesg"},
		{"ad", "art"},
		{"chair", "quic"},
		{"member", "iesg"},
		{"ad"},
		{"auth", "rpc", "extra"},
	})
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has(Role{Kind: RoleAdIesg}))
	assert.True(t, set.Has(Role{Kind: RoleAdArea, Area: AreaArt}))
	assert.False(t, set.HasKind(RoleAuthRpc))
}

func TestParseRolesStreamManagers(t *testing.T) {
	set := ParseRoles([][]string{
		{"chair", "iab"},
		{"delegate_stream_manager", "irtf"},
		{"chair", "ise"},
	})
	assert.True(t, set.HasKind(RoleChairIab))
	assert.True(t, set.HasKind(RoleDelegateIrtf))
	assert.True(t, set.HasKind(RoleChairIse))
	assert.False(t, set.HasKind(RoleDelegateRsab))
}

func TestParseRolesAreas(t *testing.T) {
	set := ParseRoles([][]string{
		{"ad", "gen"},
		{"ad", "sec"},
		{"ad", "tsv"},
	})
	assert.ElementsMatch(t, []Area{AreaGen, AreaSec}, set.Areas())
}

func TestVisibilityScopeMatches(t *testing.T) {
	meta := &RfcMetadata{AreaAcronym: "app", AreaAssignment: "", Stream: StreamIETF}

	assert.True(t, VisibilityScope{All: true}.Matches(nil))
	assert.False(t, VisibilityScope{Areas: []string{"art"}}.Matches(nil))
	assert.True(t, VisibilityScope{Areas: []string{"art", "app"}}.Matches(meta))
	assert.False(t, VisibilityScope{Areas: []string{"sec"}}.Matches(meta))
	assert.True(t, VisibilityScope{Streams: []Stream{StreamIETF}}.Matches(meta))
	assert.False(t, VisibilityScope{Streams: []Stream{StreamIAB}}.Matches(meta))

	// Assignment overrides nothing, either column may match.
	assigned := &RfcMetadata{AreaAcronym: "tsv", AreaAssignment: "wit", Stream: StreamIETF}
	assert.True(t, VisibilityScope{Areas: []string{"wit"}}.Matches(assigned))
}

func TestVisibilityScopeIsEmpty(t *testing.T) {
	assert.True(t, VisibilityScope{}.IsEmpty())
	assert.False(t, VisibilityScope{All: true}.IsEmpty())
	assert.False(t, VisibilityScope{Streams: []Stream{StreamIRTF}}.IsEmpty())
}
