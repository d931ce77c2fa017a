// Package catalog provides the immutable collection of room templates the
// generator draws from.
package catalog

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/roomforge/internal/room"
)

var (
	ErrEmptyCandidateSet = errors.New("catalog: no template satisfies the doorway constraint")
	ErrInvalidBand       = errors.New("catalog: invalid doorway count band")
	ErrDuplicateTemplate = errors.New("catalog: duplicate template id")
	ErrEmptyCatalog      = errors.New("catalog: no templates")
)

// MaxDoorways is the number of sides a room has.
const MaxDoorways = 4

// EmptyCandidateSetError names the constraint no template satisfied.
type EmptyCandidateSetError struct {
	Direction room.Direction
	Min, Max  int
}

func (e *EmptyCandidateSetError) Error() string {
	return fmt.Sprintf("catalog: no template with a %s doorway and %d-%d doorways", e.Direction, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrEmptyCandidateSet) hold.
func (e *EmptyCandidateSetError) Is(target error) bool {
	return target == ErrEmptyCandidateSet
}

// Catalog is a fixed, read-only set of room templates.
type Catalog struct {
	templates []room.Template
}

// New validates templates and builds a catalog from a copy of them.
func New(templates []room.Template) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(templates))
	copied := make([]room.Template, len(templates))
	for i, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.ID)
		}
		seen[t.ID] = true
		copied[i] = t
	}

	return &Catalog{templates: copied}, nil
}

// Len returns the number of templates in the catalog
func (c *Catalog) Len() int {
	return len(c.templates)
}

// Templates returns a copy of every template in catalog order.
func (c *Catalog) Templates() []room.Template {
	out := make([]room.Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get looks up a template by id.
func (c *Catalog) Get(id string) (*room.Template, bool) {
	for i := range c.templates {
		if c.templates[i].ID == id {
			return &c.templates[i], true
		}
	}
	return nil, false
}

// FindCompatible returns the templates with a doorway on side d whose doorway
// count lies in [minDoors, maxDoors], in catalog order. The result may be
// empty; callers decide whether that is fatal.
func (c *Catalog) FindCompatible(d room.Direction, minDoors, maxDoors int) []*room.Template {
	var matches []*room.Template
	for i := range c.templates {
		t := &c.templates[i]
		if !t.Doorways.Has(d) {
			continue
		}
		if t.DoorwayCount < minDoors || t.DoorwayCount > maxDoors {
			continue
		}
		matches = append(matches, t)
	}
	return matches
}

// Query is FindCompatible with argument checking: an invalid band returns
// ErrInvalidBand and an empty result returns an *EmptyCandidateSetError.
func (c *Catalog) Query(d room.Direction, minDoors, maxDoors int) ([]*room.Template, error) {
	if err := ValidateBand(minDoors, maxDoors); err != nil {
		return nil, err
	}
	if !d.Valid() {
		return nil, fmt.Errorf("catalog: invalid direction %d", d)
	}

	matches := c.FindCompatible(d, minDoors, maxDoors)
	if len(matches) == 0 {
		return nil, &EmptyCandidateSetError{Direction: d, Min: minDoors, Max: maxDoors}
	}
	return matches, nil
}

// Covers checks that every direction has at least one template in the band.
func (c *Catalog) Covers(minDoors, maxDoors int) error {
	for _, d := range room.AllDirections() {
		if _, err := c.Query(d, minDoors, maxDoors); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBand checks 0 <= minDoors <= maxDoors <= MaxDoorways.
func ValidateBand(minDoors, maxDoors int) error {
	if minDoors < 0 || maxDoors > MaxDoorways || minDoors > maxDoors {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidBand, minDoors, maxDoors)
	}
	return nil
}
