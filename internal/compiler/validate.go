package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/modules"
)

// Validation error codes (E100-E199)
const (
	// Profile errors (E101-E109)
	ErrProfileNameEmpty  = "E101" // profile name is required
	ErrProfileNoModules  = "E102" // at least one module required
	ErrUnknownModule     = "E103" // module name has no built-in spec
	ErrUnknownNormalizer = "E104" // normalizer name is not registered
	ErrDuplicateName     = "E105" // module or normalizer listed twice

	// Link errors (E110-E119)
	ErrUnknownKind       = "E110" // filter names an unknown event kind
	ErrInvalidActor      = "E111" // actor keyword or id is invalid
	ErrNegativeValue     = "E112" // buffer or link cap below zero
	ErrEmptyFilter       = "E113" // filter accepts no kinds
	ErrRelationConflict  = "E114" // relation name reused without shared
	ErrInvalidAbilityRef = "E115" // ability id is not positive
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled profile against the registered modules,
// normalizers and event kinds.
// Returns all errors found (does not fail-fast).
func Validate(p *Profile) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "profile",
			Message: "profile name is required and must be non-empty",
			Code:    ErrProfileNameEmpty,
		})
	}

	if len(p.Modules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "modules",
			Message: "at least one module is required",
			Code:    ErrProfileNoModules,
		})
	}

	known := modules.Names()
	seen := make(map[string]bool)
	for i, name := range p.Modules {
		field := fmt.Sprintf("modules[%d]", i)
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate module: %q", name),
				Code:    ErrDuplicateName,
			})
		}
		seen[name] = true
		if !slices.Contains(known, name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown module %q (known: %s)", name, strings.Join(known, ", ")),
				Code:    ErrUnknownModule,
			})
		}
	}

	seen = make(map[string]bool)
	for i, name := range p.Normalizers {
		field := fmt.Sprintf("normalizers[%d]", i)
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate normalizer: %q", name),
				Code:    ErrDuplicateName,
			})
		}
		seen[name] = true
		if _, ok := normalizers[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown normalizer %q (known: %s)", name, strings.Join(NormalizerNames(), ", ")),
				Code:    ErrUnknownNormalizer,
			})
		}
	}

	for _, l := range p.Links {
		errs = append(errs, validateLink(l)...)
	}
	errs = append(errs, validateRelationNames(p.Links)...)

	return errs
}

func validateLink(l LinkDecl) []ValidationError {
	var errs []ValidationError
	line := l.Pos.Line()
	prefix := "link." + l.Relation

	if l.ForwardMs < 0 || l.BackwardMs < 0 {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: fmt.Sprintf("buffers must be non-negative (forward_ms=%d, backward_ms=%d)", l.ForwardMs, l.BackwardMs),
			Code:    ErrNegativeValue,
			Line:    line,
		})
	}
	if l.MaxLinks < 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".max_links",
			Message: fmt.Sprintf("must be non-negative, got %d", l.MaxLinks),
			Code:    ErrNegativeValue,
			Line:    line,
		})
	}

	errs = append(errs, validateFilter(prefix+".trigger", line, l.Trigger)...)
	errs = append(errs, validateFilter(prefix+".referenced", line, l.Referenced)...)
	return errs
}

var actorKeywords = []string{"player", "pet", "player_or_pet"}

func validateFilter(field string, line int, f FilterDecl) []ValidationError {
	var errs []ValidationError

	if len(f.Kinds) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".kinds",
			Message: "filter must accept at least one event kind",
			Code:    ErrEmptyFilter,
			Line:    line,
		})
	}
	for i, k := range f.Kinds {
		if !ir.Kind(k).Valid() {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.kinds[%d]", field, i),
				Message: fmt.Sprintf("unknown event kind %q", k),
				Code:    ErrUnknownKind,
				Line:    line,
			})
		}
	}

	for name, a := range map[string]*ActorDecl{"by": f.By, "to": f.To} {
		if a == nil {
			continue
		}
		if a.Keyword != "" && !slices.Contains(actorKeywords, a.Keyword) {
			errs = append(errs, ValidationError{
				Field:   field + "." + name,
				Message: fmt.Sprintf("unknown actor keyword %q (valid: %s)", a.Keyword, strings.Join(actorKeywords, ", ")),
				Code:    ErrInvalidActor,
				Line:    line,
			})
		}
		if a.Keyword == "" && a.ID <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + "." + name,
				Message: fmt.Sprintf("actor id must be positive, got %d", a.ID),
				Code:    ErrInvalidActor,
				Line:    line,
			})
		}
	}

	for i, id := range f.Abilities {
		if id <= 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.abilities[%d]", field, i),
				Message: fmt.Sprintf("ability id must be positive, got %d", id),
				Code:    ErrInvalidAbilityRef,
				Line:    line,
			})
		}
	}

	// Map iteration above is unordered; keep the report stable.
	slices.SortStableFunc(errs, func(a, b ValidationError) int {
		return strings.Compare(a.Field, b.Field)
	})
	return errs
}

// validateRelationNames rejects a relation name claimed by more than one
// link unless every claimant is shared.
func validateRelationNames(links []LinkDecl) []ValidationError {
	type claim struct {
		relation string
		shared   bool
	}
	claims := make(map[string][]claim)
	var order []string
	for _, l := range links {
		names := []string{l.Relation}
		if l.Reverse != "" && l.Reverse != l.Relation {
			names = append(names, l.Reverse)
		}
		for _, n := range names {
			if _, ok := claims[n]; !ok {
				order = append(order, n)
			}
			claims[n] = append(claims[n], claim{relation: l.Relation, shared: l.Shared})
		}
	}

	var errs []ValidationError
	for _, n := range order {
		list := claims[n]
		if len(list) < 2 {
			continue
		}
		for _, c := range list {
			if c.shared {
				continue
			}
			var owners []string
			for _, o := range list {
				owners = append(owners, o.relation)
			}
			errs = append(errs, ValidationError{
				Field:   "link." + c.relation,
				Message: fmt.Sprintf("relation name %q is also used by %s and is not shared", n, strings.Join(owners, ", ")),
				Code:    ErrRelationConflict,
			})
			break
		}
	}
	return errs
}
