// Package scope tracks acquired resources so they can be released in the
// reverse order of acquisition.
package scope

import (
	"errors"
	"fmt"
)

// resource is one acquired step and the function that undoes it.
type resource struct {
	name    string
	release func() error
}

// Scope is an ordered list of acquired resources.
//
// A Scope is not safe for concurrent use.
type Scope struct {
	resources []resource
}

// New returns an empty scope.
func New() *Scope {
	return &Scope{}
}

// Acquire records a resource that has just been acquired.
// A nil release is recorded as a no-op so the name still appears in Names.
func (s *Scope) Acquire(name string, release func() error) {
	if release == nil {
		release = func() error { return nil }
	}
	s.resources = append(s.resources, resource{name: name, release: release})
}

// Len returns the number of resources currently held.
func (s *Scope) Len() int {
	return len(s.resources)
}

// Names returns the held resource names in acquisition order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.resources))
	for _, r := range s.resources {
		names = append(names, r.name)
	}
	return names
}

// Release releases every held resource, last acquired first.
//
// All release functions run even when some fail; their errors are joined.
// The scope is empty afterwards, so calling Release again is a no-op.
func (s *Scope) Release() error {
	var errs []error
	for i := len(s.resources) - 1; i >= 0; i-- {
		r := s.resources[i]
		if err := r.release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", r.name, err))
		}
	}
	s.resources = nil
	return errors.Join(errs...)
}
