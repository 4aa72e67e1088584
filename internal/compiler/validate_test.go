package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Profile Validation Tests
// =============================================================================

func validProfile() *Profile {
	return &Profile{
		Name:        "healer",
		Modules:     []string{"wildGrowth"},
		Normalizers: []string{"prepullBuffs"},
		Links: []LinkDecl{{
			Relation:   "appliedHot",
			Reverse:    "fromHardcast",
			Trigger:    FilterDecl{Kinds: []string{"cast"}, By: &ActorDecl{Keyword: "player"}, Abilities: []int64{48438}},
			Referenced: FilterDecl{Kinds: []string{"applybuff"}, To: &ActorDecl{ID: 9}},
			ForwardMs:  100,
		}},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateProfileValid(t *testing.T) {
	errs := Validate(validProfile())
	assert.Empty(t, errs, "valid profile should have no errors")
}

func TestValidateProfileMissingName(t *testing.T) {
	p := validProfile()
	p.Name = "  "

	errs := Validate(p)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrProfileNameEmpty, errs[0].Code)
	assert.Equal(t, "profile", errs[0].Field)
}

func TestValidateProfileNoModules(t *testing.T) {
	p := validProfile()
	p.Modules = nil

	errs := Validate(p)
	assert.Equal(t, []string{ErrProfileNoModules}, codes(errs))
}

func TestValidateProfileModules(t *testing.T) {
	p := validProfile()
	p.Modules = []string{"haste", "mystery", "haste"}

	errs := Validate(p)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrUnknownModule, errs[0].Code)
	assert.Equal(t, "modules[1]", errs[0].Field)
	assert.Contains(t, errs[0].Message, "known: abilityTracker")
	assert.Equal(t, ErrDuplicateName, errs[1].Code)
	assert.Equal(t, "modules[2]", errs[1].Field)
}

func TestValidateProfileNormalizers(t *testing.T) {
	p := validProfile()
	p.Normalizers = []string{"smoothing"}

	errs := Validate(p)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownNormalizer, errs[0].Code)
	assert.Contains(t, errs[0].Message, "prepullBuffs")
}

func TestValidateLinkFilters(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(l *LinkDecl)
		code  string
		field string
	}{
		{
			name:  "unknown kind",
			mod:   func(l *LinkDecl) { l.Trigger.Kinds = []string{"summon"} },
			code:  ErrUnknownKind,
			field: "link.appliedHot.trigger.kinds[0]",
		},
		{
			name:  "empty kinds",
			mod:   func(l *LinkDecl) { l.Referenced.Kinds = nil },
			code:  ErrEmptyFilter,
			field: "link.appliedHot.referenced.kinds",
		},
		{
			name:  "bad keyword",
			mod:   func(l *LinkDecl) { l.Trigger.By = &ActorDecl{Keyword: "boss"} },
			code:  ErrInvalidActor,
			field: "link.appliedHot.trigger.by",
		},
		{
			name:  "zero actor id",
			mod:   func(l *LinkDecl) { l.Referenced.To = &ActorDecl{} },
			code:  ErrInvalidActor,
			field: "link.appliedHot.referenced.to",
		},
		{
			name:  "negative ability",
			mod:   func(l *LinkDecl) { l.Trigger.Abilities = []int64{-1} },
			code:  ErrInvalidAbilityRef,
			field: "link.appliedHot.trigger.abilities[0]",
		},
		{
			name:  "negative buffer",
			mod:   func(l *LinkDecl) { l.BackwardMs = -5 },
			code:  ErrNegativeValue,
			field: "link.appliedHot",
		},
		{
			name:  "negative cap",
			mod:   func(l *LinkDecl) { l.MaxLinks = -1 },
			code:  ErrNegativeValue,
			field: "link.appliedHot.max_links",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mod(&p.Links[0])

			errs := Validate(p)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	p := validProfile()
	p.Name = ""
	p.Modules = []string{"nope"}
	p.Links[0].Trigger.Kinds = []string{"summon"}
	p.Links[0].ForwardMs = -1

	errs := Validate(p)
	assert.Equal(t, []string{ErrProfileNameEmpty, ErrUnknownModule, ErrNegativeValue, ErrUnknownKind}, codes(errs))
}

func TestValidateRelationNames(t *testing.T) {
	p := validProfile()
	dup := p.Links[0]
	dup.Relation = "other"
	dup.Reverse = "fromHardcast"
	p.Links = append(p.Links, dup)

	errs := Validate(p)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRelationConflict, errs[0].Code)
	assert.Contains(t, errs[0].Message, `"fromHardcast"`)
	assert.Contains(t, errs[0].Message, "appliedHot, other")

	p.Links[0].Shared = true
	p.Links[1].Shared = true
	assert.Empty(t, Validate(p))
}

func TestValidationErrorFormat(t *testing.T) {
	withLine := ValidationError{Field: "modules[0]", Message: "bad", Code: ErrUnknownModule, Line: 3}
	assert.Equal(t, "[E103] line 3: modules[0]: bad", withLine.Error())

	noLine := ValidationError{Field: "profile", Message: "bad", Code: ErrProfileNameEmpty}
	assert.Equal(t, "[E101] profile: bad", noLine.Error())
}
