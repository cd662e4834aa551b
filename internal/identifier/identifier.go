package identifier

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// Policy controls how BA sequence numbers restart.
type Policy string

const (
	// PolicyGlobal keeps one counter that never resets.
	PolicyGlobal Policy = "global"
	// PolicyYearly restarts the counter every calendar year.
	PolicyYearly Policy = "yearly"
)

// ParsePolicy maps a config value to a Policy; anything unknown is global.
func ParsePolicy(value string) Policy {
	if Policy(value) == PolicyYearly {
		return PolicyYearly
	}
	return PolicyGlobal
}

const (
	sequenceBA   = "ba"
	sequenceLH05 = "lh05"
	sequenceRAB  = "rab"

	defaultUnitCode = "ND KAL 2"
)

// Sequencer hands out the next value of a named counter. Implementations
// must be safe for concurrent use and never return the same value twice for a name.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
	// AdvanceTo raises the counter to at least value without ever lowering it.
	AdvanceTo(ctx context.Context, name string, value int64) error
}

// Options configures a Generator.
type Options struct {
	BAPolicy Policy
	UnitCode string
	Now      func() time.Time
}

// Generator formats document numbers on top of a Sequencer.
type Generator struct {
	seq      Sequencer
	policy   Policy
	unitCode string
	now      func() time.Time
}

// NewGenerator creates a document number generator.
func NewGenerator(seq Sequencer, opts Options) *Generator {
	if opts.UnitCode == "" {
		opts.UnitCode = defaultUnitCode
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BAPolicy == "" {
		opts.BAPolicy = PolicyGlobal
	}

	return &Generator{
		seq:      seq,
		policy:   opts.BAPolicy,
		unitCode: opts.UnitCode,
		now:      opts.Now,
	}
}

// BANumber returns the next BA number, e.g. BA-2024-0001. The year comes from
// date when given, otherwise from the clock.
func (g *Generator) BANumber(ctx context.Context, date *time.Time) (string, error) {
	year := g.now().Year()
	if date != nil && !date.IsZero() {
		year = date.Year()
	}

	name := sequenceBA
	if g.policy == PolicyYearly {
		name = sequenceBA + ":" + strconv.Itoa(year)
	}

	n, err := g.seq.Next(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to allocate BA number: %w", err)
	}

	return fmt.Sprintf("BA-%d-%04d", year, n), nil
}

var baNumberPattern = regexp.MustCompile(`^BA-(\d{4})-(\d+)$`)

// SyncBA moves the BA counter past numbers issued elsewhere, such as imported
// legacy documents, so new allocations never repeat them. Numbers that do not
// look like BA-YYYY-NNNN are ignored.
func (g *Generator) SyncBA(ctx context.Context, numbers []string) error {
	highest := make(map[string]int64)
	for _, number := range numbers {
		m := baNumberPattern.FindStringSubmatch(number)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}

		name := sequenceBA
		if g.policy == PolicyYearly {
			name = sequenceBA + ":" + m[1]
		}
		if n > highest[name] {
			highest[name] = n
		}
	}

	for name, n := range highest {
		if err := g.seq.AdvanceTo(ctx, name, n); err != nil {
			return fmt.Errorf("failed to sync BA sequence: %w", err)
		}
	}
	return nil
}

// LH05Number returns the next disruption report number, e.g. 001/ND KAL 2/LH05/2024.
func (g *Generator) LH05Number(ctx context.Context) (string, error) {
	n, err := g.seq.Next(ctx, sequenceLH05)
	if err != nil {
		return "", fmt.Errorf("failed to allocate LH05 number: %w", err)
	}

	return fmt.Sprintf("%03d/%s/LH05/%d", n, g.unitCode, g.now().Year()), nil
}

// RABNumber returns the next budget document number, e.g. RAB-2024-0001.
func (g *Generator) RABNumber(ctx context.Context, date time.Time) (string, error) {
	if date.IsZero() {
		date = g.now()
	}

	n, err := g.seq.Next(ctx, sequenceRAB)
	if err != nil {
		return "", fmt.Errorf("failed to allocate RAB number: %w", err)
	}

	return fmt.Sprintf("RAB-%d-%04d", date.Year(), n), nil
}

// MemorySequencer is a mutex-guarded Sequencer for tests and single-process tools.
type MemorySequencer struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemorySequencer creates an empty in-memory sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{values: make(map[string]int64)}
}

func (m *MemorySequencer) Next(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[name]++
	return m.values[name], nil
}

func (m *MemorySequencer) AdvanceTo(_ context.Context, name string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values[name] < value {
		m.values[name] = value
	}
	return nil
}

var _ Sequencer = (*MemorySequencer)(nil)
