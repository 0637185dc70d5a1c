package discovery

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/aurad/internal/template"
)

var (
	// ErrInvalidPolicy indicates a policy file that parsed but failed
	// validation (bad ranges, overlaps, out-of-bounds IDs).
	ErrInvalidPolicy = errors.New("invalid allocation policy")

	// ErrUnknownRange indicates a requested range name the policy does
	// not define.
	ErrUnknownRange = errors.New("unknown allocation range")

	// ErrRangeExhausted indicates every ID in the range is taken.
	ErrRangeExhausted = errors.New("allocation range exhausted")
)

// maxWireID is the highest template ID expressible in the one-byte
// binary-semantic header.
const maxWireID = 255

// IDRange is a named contiguous block of template IDs.
type IDRange struct {
	Name  string `toml:"name"`
	Start uint16 `toml:"start"`
	End   uint16 `toml:"end"`
}

// AllocationPolicy partitions the discoverable ID space into named
// ranges so that platform, org, and user templates cannot collide.
type AllocationPolicy struct {
	DefaultRange string    `toml:"default_range"`
	Ranges       []IDRange `toml:"ranges"`
}

// DefaultPolicy returns the standard three-way split of the ID space
// above the built-in templates.
func DefaultPolicy() *AllocationPolicy {
	return &AllocationPolicy{
		DefaultRange: "platform",
		Ranges: []IDRange{
			{Name: "platform", Start: 149, End: 208},
			{Name: "org", Start: 209, End: 223},
			{Name: "user", Start: 224, End: 255},
		},
	}
}

// LoadPolicy reads an allocation policy from a TOML file. An empty path
// or a missing file yields the default policy; an invalid file returns
// an error.
func LoadPolicy(path string) (*AllocationPolicy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("failed to stat policy file: %w", err)
	}

	var policy AllocationPolicy
	if _, err := toml.DecodeFile(path, &policy); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPolicy, path, err)
	}

	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// validate checks range names, bounds, and overlap. The default range
// must name a defined range; when unset it becomes the first one.
func (p *AllocationPolicy) validate() error {
	if len(p.Ranges) == 0 {
		return fmt.Errorf("%w: no ranges defined", ErrInvalidPolicy)
	}

	seen := make(map[string]bool, len(p.Ranges))
	for _, r := range p.Ranges {
		if r.Name == "" {
			return fmt.Errorf("%w: range with empty name", ErrInvalidPolicy)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate range %q", ErrInvalidPolicy, r.Name)
		}
		seen[r.Name] = true
		if r.Start > r.End {
			return fmt.Errorf("%w: range %q: start %d > end %d", ErrInvalidPolicy, r.Name, r.Start, r.End)
		}
		if r.Start <= template.BuiltinMax {
			return fmt.Errorf("%w: range %q overlaps built-in IDs (start %d <= %d)", ErrInvalidPolicy, r.Name, r.Start, template.BuiltinMax)
		}
		if r.End > maxWireID {
			return fmt.Errorf("%w: range %q exceeds wire limit (end %d > %d)", ErrInvalidPolicy, r.Name, r.End, maxWireID)
		}
	}

	ordered := make([]IDRange, len(p.Ranges))
	copy(ordered, p.Ranges)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Start <= ordered[i-1].End {
			return fmt.Errorf("%w: ranges %q and %q overlap", ErrInvalidPolicy, ordered[i-1].Name, ordered[i].Name)
		}
	}

	if p.DefaultRange == "" {
		p.DefaultRange = p.Ranges[0].Name
	} else if !seen[p.DefaultRange] {
		return fmt.Errorf("%w: default range %q", ErrUnknownRange, p.DefaultRange)
	}
	return nil
}

// Range resolves a range by name. An empty name selects the policy's
// default range.
func (p *AllocationPolicy) Range(name string) (IDRange, error) {
	if name == "" {
		name = p.DefaultRange
	}
	for _, r := range p.Ranges {
		if r.Name == name {
			return r, nil
		}
	}
	return IDRange{}, fmt.Errorf("%w: %q", ErrUnknownRange, name)
}

// Allocator hands out unused template IDs from a single range. All
// methods are safe for concurrent use.
type Allocator struct {
	mu   sync.Mutex
	r    IDRange
	used map[uint16]bool
}

// NewAllocator creates an allocator for the named range of the policy.
func NewAllocator(policy *AllocationPolicy, rangeName string) (*Allocator, error) {
	r, err := policy.Range(rangeName)
	if err != nil {
		return nil, err
	}
	return &Allocator{r: r, used: make(map[uint16]bool)}, nil
}

// MarkUsed records an ID as taken. IDs outside the range are ignored,
// so callers can feed the full registered-template set.
func (a *Allocator) MarkUsed(id uint16) {
	if id < a.r.Start || id > a.r.End {
		return
	}
	a.mu.Lock()
	a.used[id] = true
	a.mu.Unlock()
}

// Next returns the lowest unused ID in the range and marks it taken.
func (a *Allocator) Next() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id := a.r.Start; id <= a.r.End; id++ {
		if !a.used[id] {
			a.used[id] = true
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (%d-%d)", ErrRangeExhausted, a.r.Name, a.r.Start, a.r.End)
}

// Free reports how many IDs remain in the range.
func (a *Allocator) Free() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	free := 0
	for id := a.r.Start; id <= a.r.End; id++ {
		if !a.used[id] {
			free++
		}
	}
	return free
}
