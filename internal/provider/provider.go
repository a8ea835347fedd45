package provider

import (
	"fmt"
	"reflect"

	"github.com/xraph/multi/errors"
)

// Token names an injection point. Tokens are compared with ==, so they must
// be comparable: *Symbol, string and reflect.Type all qualify.
type Token = any

// Symbol is an identity token. Two symbols with the same name are distinct.
type Symbol struct {
	name string
}

// NewToken creates a new identity token.
func NewToken(name string) *Symbol {
	return &Symbol{name: name}
}

// Name returns the name the symbol was created with.
func (s *Symbol) Name() string {
	return s.name
}

func (s *Symbol) String() string {
	return "Symbol(" + s.name + ")"
}

// TypeOf returns the type token for T, the analogue of a class reference.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Kind is the construction strategy of a provider.
type Kind int

const (
	KindValue Kind = iota
	KindClass
	KindFactory
	KindExisting
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "useClass"
	case KindFactory:
		return "useFactory"
	case KindExisting:
		return "useExisting"
	default:
		return "useValue"
	}
}

// Provider describes how to produce the value of a token.
//
// A provider without UseClass, UseFactory or UseExisting provides UseValue,
// which may be nil. UseClass takes a constructor function whose parameters
// are injected by type unless Inject is set. UseFactory takes a function whose
// parameters are the resolved Inject tokens, in order.
type Provider struct {
	Provide     Token
	UseClass    any
	UseValue    any
	UseFactory  any
	UseExisting Token
	Inject      []Token

	// Multi marks the provider as one contribution to the aggregation of
	// Provide rather than its direct provider.
	Multi bool
	// Standalone, nil meaning true, states that the contribution does not
	// depend on providers local to its declaring module.
	Standalone *bool
}

// Bool returns a pointer to b, for use with Provider.Standalone.
func Bool(b bool) *bool {
	return &b
}

// Kind reports the construction strategy.
func (p *Provider) Kind() Kind {
	switch {
	case p.UseClass != nil:
		return KindClass
	case p.UseFactory != nil:
		return KindFactory
	case p.UseExisting != nil:
		return KindExisting
	default:
		return KindValue
	}
}

// IsStandalone returns the explicit standalone flag, defaulting to true.
func (p *Provider) IsStandalone() bool {
	if p.Standalone == nil {
		return true
	}
	return *p.Standalone
}

// WithToken returns a copy of p keyed under token.
func (p *Provider) WithToken(token Token) *Provider {
	cp := *p
	cp.Provide = token
	if p.Inject != nil {
		cp.Inject = append([]Token(nil), p.Inject...)
	}
	return &cp
}

// Dependencies returns the tokens that must be resolved to build p, in
// argument order.
func (p *Provider) Dependencies() ([]Token, error) {
	switch p.Kind() {
	case KindClass:
		if p.Inject != nil {
			return append([]Token(nil), p.Inject...), nil
		}
		_, params, err := ClassInfo(p.UseClass)
		if err != nil {
			return nil, err
		}
		deps := make([]Token, len(params))
		for i, t := range params {
			deps[i] = t
		}
		return deps, nil
	case KindFactory:
		return append([]Token(nil), p.Inject...), nil
	case KindExisting:
		return []Token{p.UseExisting}, nil
	default:
		return nil, nil
	}
}

// Validate checks that the provider has a usable token and a single strategy.
func (p *Provider) Validate() error {
	if err := ValidateToken(p.Provide); err != nil {
		return err
	}

	set := 0
	for _, v := range []any{p.UseClass, p.UseFactory, p.UseExisting} {
		if v != nil {
			set++
		}
	}
	if set > 1 {
		return errors.ErrInvalidProvider(Describe(p), fmt.Errorf("more than one construction strategy"))
	}
	if set == 1 && p.UseValue != nil {
		return errors.ErrInvalidProvider(Describe(p), fmt.Errorf("useValue combined with %s", p.Kind()))
	}

	switch p.Kind() {
	case KindClass:
		_, params, err := ClassInfo(p.UseClass)
		if err != nil {
			return errors.ErrInvalidProvider(Describe(p), err)
		}
		if p.Inject != nil && len(p.Inject) != len(params) {
			return errors.ErrInvalidProvider(Describe(p),
				fmt.Errorf("class expects %d parameters, inject lists %d", len(params), len(p.Inject)))
		}
	case KindFactory:
		if err := checkFactory(p.UseFactory, len(p.Inject)); err != nil {
			return errors.ErrInvalidProvider(Describe(p), err)
		}
	case KindExisting:
		if err := ValidateToken(p.UseExisting); err != nil {
			return err
		}
	}

	for _, dep := range p.Inject {
		if err := ValidateToken(dep); err != nil {
			return err
		}
	}
	return nil
}

// ValidateToken rejects nil and non-comparable tokens.
func ValidateToken(token Token) error {
	if token == nil {
		return errors.ErrInvalidToken("<nil>")
	}
	if !reflect.TypeOf(token).Comparable() {
		return errors.ErrInvalidToken(fmt.Sprintf("%T", token))
	}
	return nil
}

// From turns a raw provider list entry into a descriptor. Entries are
// Provider values, *Provider, or bare constructor functions which provide
// the type they return.
func From(raw any) (*Provider, error) {
	switch v := raw.(type) {
	case *Provider:
		if v == nil {
			return nil, errors.ErrInvalidProvider("<nil>", nil)
		}
		return v, nil
	case Provider:
		return &v, nil
	case nil:
		return nil, errors.ErrInvalidProvider("<nil>", nil)
	}

	out, _, err := ClassInfo(raw)
	if err != nil {
		return nil, errors.ErrInvalidProvider(Describe(raw), err)
	}
	return &Provider{Provide: out, UseClass: raw}, nil
}

// IsMulti reports whether raw is marked as a multi-contribution. Bare
// constructors never are.
func IsMulti(raw any) bool {
	switch v := raw.(type) {
	case *Provider:
		return v != nil && v.Multi
	case Provider:
		return v.Multi
	default:
		return false
	}
}

// TokenOf returns the token a raw provider list entry provides. Tokens that
// cannot key a map are rejected with INVALID_TOKEN.
func TokenOf(raw any) (Token, error) {
	p, err := From(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateToken(p.Provide); err != nil {
		return nil, err
	}
	return p.Provide, nil
}
