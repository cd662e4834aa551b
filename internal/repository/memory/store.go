package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/repository"
)

// Store keeps every table in process memory behind one lock, so cross-table
// operations such as the RAB cascade stay atomic.
type Store struct {
	mu sync.RWMutex

	transactions []domain.Transaction
	targets      map[string]domain.TargetAge
	sequences    map[string]int64
	gangguan     []domain.Gangguan
	materials    []domain.GangguanMaterial
	rabs         []domain.RAB
	parts        map[string]domain.Part

	nextID int64
	now    func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		targets:   make(map[string]domain.TargetAge),
		sequences: make(map[string]int64),
		parts:     make(map[string]domain.Part),
		now:       time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Transactions returns the transaction repository view of the store.
func (s *Store) Transactions() repository.TransactionRepository { return &transactionRepository{s} }

// Targets returns the target-age repository view of the store.
func (s *Store) Targets() repository.TargetAgeRepository { return &targetAgeRepository{s} }

// Sequences returns the sequence repository view of the store.
func (s *Store) Sequences() repository.SequenceRepository { return &sequenceRepository{s} }

// Gangguan returns the gangguan repository view of the store.
func (s *Store) Gangguan() repository.GangguanRepository { return &gangguanRepository{s} }

// RABs returns the RAB repository view of the store.
func (s *Store) RABs() repository.RABRepository { return &rabRepository{s} }

// Parts returns the part catalogue view of the store.
func (s *Store) Parts() repository.PartRepository { return &partRepository{s} }

type transactionRepository struct{ s *Store }

var _ repository.TransactionRepository = (*transactionRepository)(nil)

func (r *transactionRepository) Append(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || len(tx.Materials) == 0 {
		return errors.New("transaction must carry at least one material line")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.transactions {
		if existing.NomorBA == tx.NomorBA {
			return fmt.Errorf("%w: BA number %s", domain.ErrDuplicate, tx.NomorBA)
		}
	}

	tx.ID = r.s.id()
	tx.CreatedAt = r.s.now()
	for i := range tx.Materials {
		tx.Materials[i].ID = r.s.id()
		tx.Materials[i].TransactionID = tx.ID
	}
	r.s.transactions = append(r.s.transactions, copyTransaction(*tx))

	return nil
}

func (r *transactionRepository) ListAll(_ context.Context) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(r.s.transactions))
	for _, tx := range r.s.transactions {
		out = append(out, copyTransaction(tx))
	}
	return out, nil
}

func (r *transactionRepository) List(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]domain.Transaction, 0)
	for i := len(r.s.transactions) - 1; i >= 0; i-- {
		tx := r.s.transactions[i]
		if filter.JenisTransaksi != "" && !strings.Contains(strings.ToLower(tx.JenisTransaksi), strings.ToLower(filter.JenisTransaksi)) {
			continue
		}
		if filter.Lokasi != "" && !strings.EqualFold(tx.LokasiAsal, filter.Lokasi) && !strings.EqualFold(tx.LokasiTujuan, filter.Lokasi) {
			continue
		}
		matched = append(matched, copyTransaction(tx))
	}

	total := len(matched)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start > total {
			start = total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

func (r *transactionRepository) GetByNomorBA(_ context.Context, nomorBA string) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, tx := range r.s.transactions {
		if tx.NomorBA == nomorBA {
			found := copyTransaction(tx)
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func copyTransaction(tx domain.Transaction) domain.Transaction {
	tx.Materials = append([]domain.MaterialLine(nil), tx.Materials...)
	return tx
}

type targetAgeRepository struct{ s *Store }

var _ repository.TargetAgeRepository = (*targetAgeRepository)(nil)

func (r *targetAgeRepository) Get(_ context.Context, partNumber string) (*domain.TargetAge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	target, ok := r.s.targets[partNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &target, nil
}

func (r *targetAgeRepository) Set(_ context.Context, partNumber string, days int) (*domain.TargetAge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	target := domain.TargetAge{PartNumber: partNumber, TargetDays: days, UpdatedAt: r.s.now()}
	r.s.targets[partNumber] = target
	return &target, nil
}

func (r *targetAgeRepository) List(_ context.Context) ([]domain.TargetAge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.TargetAge, 0, len(r.s.targets))
	for _, target := range r.s.targets {
		out = append(out, target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out, nil
}

type sequenceRepository struct{ s *Store }

var _ repository.SequenceRepository = (*sequenceRepository)(nil)

func (r *sequenceRepository) Next(_ context.Context, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sequences[name]++
	return r.s.sequences[name], nil
}

func (r *sequenceRepository) AdvanceTo(_ context.Context, name string, value int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.sequences[name] < value {
		r.s.sequences[name] = value
	}
	return nil
}

type gangguanRepository struct{ s *Store }

var _ repository.GangguanRepository = (*gangguanRepository)(nil)

func (r *gangguanRepository) Create(_ context.Context, g *domain.Gangguan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g.ID = r.s.id()
	g.CreatedAt = r.s.now()
	for i := range g.Materials {
		m := &g.Materials[i]
		m.ID = r.s.id()
		m.GangguanID = g.ID
		m.NomorLH05 = g.NomorLH05
		m.Lokasi = g.Lokasi
		m.UpdatedAt = g.CreatedAt
		r.s.materials = append(r.s.materials, *m)
	}

	stored := *g
	stored.Materials = nil
	r.s.gangguan = append(r.s.gangguan, stored)

	return nil
}

func (r *gangguanRepository) List(_ context.Context) ([]domain.Gangguan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Gangguan, 0, len(r.s.gangguan))
	for i := len(r.s.gangguan) - 1; i >= 0; i-- {
		g := r.s.gangguan[i]
		g.Materials = make([]domain.GangguanMaterial, 0)
		for _, m := range r.s.materials {
			if m.GangguanID == g.ID {
				g.Materials = append(g.Materials, m)
			}
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *gangguanRepository) ListMaterials(_ context.Context, filter domain.ProcurementFilter) ([]domain.GangguanMaterial, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.GangguanMaterial, 0, len(r.s.materials))
	for _, m := range r.s.materials {
		if filter.PartNumber != "" && !strings.EqualFold(m.PartNumber, filter.PartNumber) {
			continue
		}
		if filter.Unit != "" && !strings.EqualFold(m.Lokasi, filter.Unit) {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *gangguanRepository) UpdateMaterialStatus(_ context.Context, id int64, status domain.ProcurementStatus) (*domain.GangguanMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.materials {
		m := &r.s.materials[i]
		if m.ID != id {
			continue
		}
		if m.LockedByRAB {
			return nil, domain.ErrStatusLocked
		}
		m.Status = status
		m.UpdatedAt = r.s.now()
		updated := *m
		return &updated, nil
	}
	return nil, domain.ErrNotFound
}

type rabRepository struct{ s *Store }

var _ repository.RABRepository = (*rabRepository)(nil)

func (r *rabRepository) Create(_ context.Context, rab *domain.RAB) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rab.ID = r.s.id()
	rab.CreatedAt = r.s.now()
	rab.UpdatedAt = rab.CreatedAt
	if rab.Status == "" {
		rab.Status = domain.RABDraft
	}
	for i := range rab.Items {
		rab.Items[i].ID = r.s.id()
		rab.Items[i].RABID = rab.ID
	}
	r.s.rabs = append(r.s.rabs, copyRAB(*rab))

	return nil
}

func (r *rabRepository) Get(_ context.Context, id int64) (*domain.RAB, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rab := range r.s.rabs {
		if rab.ID == id {
			found := copyRAB(rab)
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *rabRepository) List(_ context.Context) ([]domain.RAB, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.RAB, 0, len(r.s.rabs))
	for i := len(r.s.rabs) - 1; i >= 0; i-- {
		out = append(out, copyRAB(r.s.rabs[i]))
	}
	return out, nil
}

func (r *rabRepository) TransitionStatus(_ context.Context, id int64, next domain.RABStatus) (*domain.RAB, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rab *domain.RAB
	for i := range r.s.rabs {
		if r.s.rabs[i].ID == id {
			rab = &r.s.rabs[i]
			break
		}
	}
	if rab == nil {
		return nil, 0, domain.ErrNotFound
	}
	if !rab.Status.CanTransitionTo(next) {
		return nil, 0, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, rab.Status, next)
	}

	now := r.s.now()
	rab.Status = next
	rab.UpdatedAt = now

	touched := 0
	if cascade, ok := next.CascadeStatus(); ok {
		for i := range r.s.materials {
			m := &r.s.materials[i]
			if !linkedTo(rab.Items, m) || !m.AcceptsCascade(cascade) {
				continue
			}
			m.Status = cascade
			m.LockedByRAB = true
			m.UpdatedAt = now
			touched++
		}
	}

	updated := copyRAB(*rab)
	return &updated, touched, nil
}

func linkedTo(items []domain.RABItem, m *domain.GangguanMaterial) bool {
	for _, item := range items {
		if item.NomorLH05 == m.NomorLH05 && item.PartNumber == m.PartNumber {
			return true
		}
	}
	return false
}

func copyRAB(rab domain.RAB) domain.RAB {
	rab.Items = append([]domain.RABItem(nil), rab.Items...)
	return rab
}

type partRepository struct{ s *Store }

var _ repository.PartRepository = (*partRepository)(nil)

func (r *partRepository) Upsert(_ context.Context, parts []domain.Part) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for _, part := range parts {
		part.UpdatedAt = now
		r.s.parts[part.PartNumber] = part
	}
	return len(parts), nil
}

func (r *partRepository) Get(_ context.Context, partNumber string) (*domain.Part, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	part, ok := r.s.parts[partNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &part, nil
}

func (r *partRepository) Search(_ context.Context, query string, limit int) ([]domain.Part, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Part, 0)
	for _, part := range r.s.parts {
		if q == "" ||
			strings.Contains(strings.ToLower(part.PartNumber), q) ||
			strings.Contains(strings.ToLower(part.Material), q) {
			out = append(out, part)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
