package dispatch

import "fmt"

// Triple identifies exactly one method slot. Triples are comparable and can
// be used as map keys.
type Triple struct {
	Class    *Class
	Selector string
	Kind     Kind
}

func (t Triple) String() string {
	name := "<nil>"
	if t.Class != nil {
		name = t.Class.name
	}
	return fmt.Sprintf("%s.%s (%s)", name, t.Selector, t.Kind)
}

func (t Triple) check() error {
	if t.Class == nil {
		return fmt.Errorf("%w: %s has no class", ErrMethodNotFound, t)
	}
	return nil
}

// Lookup resolves the triple, following inheritance.
func (t Triple) Lookup() (*Implementation, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.Class.Lookup(t.Kind, t.Selector)
}

// LookupLocal returns the slot defined on the triple's class itself.
func (t Triple) LookupLocal() (*Implementation, bool) {
	if t.Class == nil {
		return nil, false
	}
	return t.Class.LookupLocal(t.Kind, t.Selector)
}

// Install replaces the local slot. See Class.Install.
func (t Triple) Install(impl *Implementation) (*Implementation, bool, error) {
	if err := t.check(); err != nil {
		return nil, false, err
	}
	return t.Class.Install(t.Kind, t.Selector, impl)
}

// Restore undoes an Install. See Class.Restore.
func (t Triple) Restore(prev *Implementation, hadLocal bool) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.Class.Restore(t.Kind, t.Selector, prev, hadLocal)
}
