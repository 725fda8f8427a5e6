package censor

import (
	"fmt"
	"sort"
	"time"
)

// Data is a set of named datasets that share one censor date. It is the
// contextual data handed to strategies alongside the broker.
type Data struct {
	sets  map[string]any
	asOf  time.Time
	dated bool
}

func NewData() *Data {
	return &Data{sets: make(map[string]any)}
}

// Set registers rows under name, replacing any previous dataset.
func Set[T Dated](d *Data, name string, rows []T) error {
	if err := Sorted(rows); err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	cp := make([]T, len(rows))
	copy(cp, rows)
	d.sets[name] = cp
	return nil
}

// Get returns the rows of name visible at the current censor date.
func Get[T Dated](d *Data, name string) ([]T, error) {
	if !d.dated {
		return nil, fmt.Errorf("get %q: %w", name, ErrNoDate)
	}
	raw, ok := d.sets[name]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", name, ErrUnknownData)
	}
	rows, ok := raw.([]T)
	if !ok {
		return nil, fmt.Errorf("get %q: dataset holds %T", name, raw)
	}
	return Prefix(rows, d.asOf)
}

// SetDate moves the censor date.
func (d *Data) SetDate(t time.Time) {
	d.asOf = t
	d.dated = true
}

// Date returns the current censor date and whether one was set.
func (d *Data) Date() (time.Time, bool) {
	return d.asOf, d.dated
}

// Names lists registered datasets in sorted order.
func (d *Data) Names() []string {
	names := make([]string, 0, len(d.sets))
	for n := range d.sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
