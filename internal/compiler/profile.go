package compiler

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

//go:embed default_profile.cue
var defaultProfileSource []byte

// Profile is a compiled analysis profile: which modules run, which
// normalizers prepare the sequence and which link specs relate events.
type Profile struct {
	Name        string
	Modules     []string
	Normalizers []string
	Links       []LinkDecl
}

// LinkDecl is one link spec as declared in CUE.
type LinkDecl struct {
	Relation         string
	Reverse          string
	Trigger          FilterDecl
	Referenced       FilterDecl
	ForwardMs        int64
	BackwardMs       int64
	MaxLinks         int64
	AnyTarget        bool
	Shared           bool
	ActiveWithTalent int64
	Pos              token.Pos
}

// FilterDecl is an event filter as declared in CUE.
type FilterDecl struct {
	Kinds     []string
	By        *ActorDecl
	To        *ActorDecl
	Abilities []int64
}

// ActorDecl is either a selected-actor keyword or a concrete actor id.
type ActorDecl struct {
	Keyword string
	ID      int64
}

// CompileProfile parses a CUE value into a Profile.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is unified with the embedded #Profile schema first, so
// unknown fields, floats where ints are expected and missing required
// fields are reported with their source position.
func CompileProfile(v cue.Value) (*Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Profile")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Profile{}
	var err error
	if p.Name, err = v.LookupPath(cue.ParsePath("profile")).String(); err != nil {
		return nil, formatCUEError(err)
	}
	if p.Modules, err = parseStrings(v.LookupPath(cue.ParsePath("modules"))); err != nil {
		return nil, err
	}
	if p.Normalizers, err = parseStrings(v.LookupPath(cue.ParsePath("normalizers"))); err != nil {
		return nil, err
	}

	links := v.LookupPath(cue.ParsePath("link"))
	iter, err := links.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		decl, err := parseLink(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		p.Links = append(p.Links, decl)
	}
	return p, nil
}

// CompileProfileSource compiles CUE source text. filename is used in
// error positions only.
func CompileProfileSource(filename string, src []byte) (*Profile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileProfile(v)
}

// DefaultProfile returns the embedded default profile: every built-in
// module and the link specs they read. It panics if the embedded source
// does not compile, which the package tests rule out.
func DefaultProfile() *Profile {
	p, err := CompileProfileSource("default_profile.cue", defaultProfileSource)
	if err != nil {
		panic(fmt.Sprintf("compiler: default profile: %v", err))
	}
	return p
}

func parseLink(relation string, v cue.Value) (LinkDecl, error) {
	decl := LinkDecl{Relation: relation, Pos: v.Pos()}
	var err error

	if r := v.LookupPath(cue.ParsePath("reverse")); r.Exists() {
		if decl.Reverse, err = r.String(); err != nil {
			return decl, formatCUEError(err)
		}
	}
	if decl.Trigger, err = parseFilter(v.LookupPath(cue.ParsePath("trigger"))); err != nil {
		return decl, err
	}
	if decl.Referenced, err = parseFilter(v.LookupPath(cue.ParsePath("referenced"))); err != nil {
		return decl, err
	}

	for _, f := range []struct {
		name string
		dst  *int64
	}{
		{"forward_ms", &decl.ForwardMs},
		{"backward_ms", &decl.BackwardMs},
		{"max_links", &decl.MaxLinks},
		{"active_with_talent", &decl.ActiveWithTalent},
	} {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			continue
		}
		if *f.dst, err = parseInt(f.name, fv); err != nil {
			return decl, err
		}
	}

	if decl.AnyTarget, err = parseBool(v.LookupPath(cue.ParsePath("any_target"))); err != nil {
		return decl, err
	}
	if decl.Shared, err = parseBool(v.LookupPath(cue.ParsePath("shared"))); err != nil {
		return decl, err
	}
	return decl, nil
}

func parseFilter(v cue.Value) (FilterDecl, error) {
	var f FilterDecl
	var err error
	if f.Kinds, err = parseStrings(v.LookupPath(cue.ParsePath("kinds"))); err != nil {
		return f, err
	}
	if by := v.LookupPath(cue.ParsePath("by")); by.Exists() {
		if f.By, err = parseActor(by); err != nil {
			return f, err
		}
	}
	if to := v.LookupPath(cue.ParsePath("to")); to.Exists() {
		if f.To, err = parseActor(to); err != nil {
			return f, err
		}
	}
	if ab := v.LookupPath(cue.ParsePath("abilities")); ab.Exists() {
		list, err := ab.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for list.Next() {
			id, err := parseInt("abilities", list.Value())
			if err != nil {
				return f, err
			}
			f.Abilities = append(f.Abilities, id)
		}
	}
	return f, nil
}

func parseActor(v cue.Value) (*ActorDecl, error) {
	v = defaulted(v)
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ActorDecl{Keyword: s}, nil
	case cue.IntKind:
		id, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ActorDecl{ID: id}, nil
	default:
		return nil, &CompileError{
			Field:   "actor",
			Message: fmt.Sprintf("must be a keyword or an actor id, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func parseStrings(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseInt reads an int. Floats are forbidden everywhere in a profile.
func parseInt(field string, v cue.Value) (int64, error) {
	v = defaulted(v)
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return 0, formatCUEError(err)
		}
		return n, nil
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected int, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func parseBool(v cue.Value) (bool, error) {
	if !v.Exists() {
		return false, nil
	}
	b, err := defaulted(v).Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func defaulted(v cue.Value) cue.Value {
	if d, ok := v.Default(); ok {
		return d
	}
	return v
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)

	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   field,
			Message: msg,
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: field, Message: msg}
}
