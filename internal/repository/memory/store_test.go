package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

func TestTransactionRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Transactions()

	first := &domain.Transaction{
		NomorBA:        "BA-2024-0001",
		Tanggal:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		JenisTransaksi: "Masuk",
		LokasiAsal:     "Supplier",
		LokasiTujuan:   "Gudang",
		Materials:      []domain.MaterialLine{{PartNumber: "P001", Jumlah: 10}},
	}
	second := &domain.Transaction{
		NomorBA:        "BA-2024-0002",
		JenisTransaksi: "Keluar",
		LokasiAsal:     "Gudang",
		LokasiTujuan:   "PLTD Sanggau",
		Materials:      []domain.MaterialLine{{PartNumber: "P001", Jumlah: 2}},
	}

	for _, tx := range []*domain.Transaction{first, second} {
		if err := repo.Append(ctx, tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if first.ID == 0 || first.Materials[0].TransactionID != first.ID {
		t.Errorf("Expected ids to be assigned, got %+v", first)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(all))
	}

	// Mutating the returned copy must not leak into the store.
	all[0].Materials[0].Jumlah = 999
	again, _ := repo.ListAll(ctx)
	if again[0].Materials[0].Jumlah != 10 {
		t.Errorf("Expected stored quantity 10, got %d", again[0].Materials[0].Jumlah)
	}

	filtered, total, err := repo.List(ctx, domain.TransactionFilter{Lokasi: "pltd sanggau"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || filtered[0].NomorBA != "BA-2024-0002" {
		t.Errorf("Expected only BA-2024-0002, got %d results", total)
	}

	page, total, _ := repo.List(ctx, domain.TransactionFilter{Page: 2, PageSize: 1})
	if total != 2 || len(page) != 1 || page[0].NomorBA != "BA-2024-0001" {
		t.Errorf("Expected second page to hold the oldest BA, got %+v", page)
	}

	if _, err := repo.GetByNomorBA(ctx, "BA-404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransactionRepository_RejectsDuplicateBANumber(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Transactions()

	tx := func() *domain.Transaction {
		return &domain.Transaction{NomorBA: "BA-2024-0001", Materials: []domain.MaterialLine{{PartNumber: "P001", Jumlah: 1}}}
	}
	if err := repo.Append(ctx, tx()); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, tx()); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	all, _ := repo.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(all))
	}
}

func TestSequenceRepository_AdvanceToNeverLowers(t *testing.T) {
	ctx := context.Background()
	seq := NewStore().Sequences()

	if err := seq.AdvanceTo(ctx, "ba", 7); err != nil {
		t.Fatalf("AdvanceTo failed: %v", err)
	}
	if err := seq.AdvanceTo(ctx, "ba", 3); err != nil {
		t.Fatalf("AdvanceTo failed: %v", err)
	}
	if n, _ := seq.Next(ctx, "ba"); n != 8 {
		t.Errorf("Expected 8, got %d", n)
	}
}

func TestTransactionRepository_RejectsEmptyMaterials(t *testing.T) {
	repo := NewStore().Transactions()
	if err := repo.Append(context.Background(), &domain.Transaction{NomorBA: "BA"}); err == nil {
		t.Error("Expected error for transaction without materials")
	}
}

func TestSequenceRepository_ConcurrentNext(t *testing.T) {
	repo := NewStore().Sequences()
	const workers = 40

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.Next(context.Background(), "ba")
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Errorf("Expected %d distinct values, got %d", workers, len(seen))
	}
}

func TestRABRepository_TransitionCascadesAndLocks(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	g := &domain.Gangguan{
		NomorLH05: "001/ND KAL 2/LH05/2024",
		Lokasi:    "PLTD Sanggau",
		Materials: []domain.GangguanMaterial{
			{PartNumber: "P001", Jumlah: 1, Status: domain.ProcurementPengadaan},
			{PartNumber: "P002", Jumlah: 1, Status: domain.ProcurementTunda},
		},
	}
	if err := store.Gangguan().Create(ctx, g); err != nil {
		t.Fatalf("Create gangguan failed: %v", err)
	}

	rab := &domain.RAB{
		NomorRAB: "RAB-2024-0001",
		Items:    []domain.RABItem{{NomorLH05: g.NomorLH05, PartNumber: "P001", Jumlah: 1}},
	}
	if err := store.RABs().Create(ctx, rab); err != nil {
		t.Fatalf("Create RAB failed: %v", err)
	}
	if rab.Status != domain.RABDraft {
		t.Errorf("Expected new RAB to be Draft, got %s", rab.Status)
	}

	updated, touched, err := store.RABs().TransitionStatus(ctx, rab.ID, domain.RABTersedia)
	if err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	if updated.Status != domain.RABTersedia || touched != 1 {
		t.Errorf("Expected Tersedia with 1 line touched, got %s/%d", updated.Status, touched)
	}

	lines, _ := store.Gangguan().ListMaterials(ctx, domain.ProcurementFilter{PartNumber: "P001"})
	if len(lines) != 1 || lines[0].Status != domain.ProcurementTersedia || !lines[0].LockedByRAB {
		t.Fatalf("Expected P001 to be Tersedia and locked, got %+v", lines)
	}

	if _, err := store.Gangguan().UpdateMaterialStatus(ctx, lines[0].ID, domain.ProcurementReject); !errors.Is(err, domain.ErrStatusLocked) {
		t.Errorf("Expected ErrStatusLocked, got %v", err)
	}

	untouched, _ := store.Gangguan().ListMaterials(ctx, domain.ProcurementFilter{PartNumber: "P002"})
	if _, err := store.Gangguan().UpdateMaterialStatus(ctx, untouched[0].ID, domain.ProcurementTerkirim); err != nil {
		t.Errorf("Expected unlocked line to accept update, got %v", err)
	}

	if _, _, err := store.RABs().TransitionStatus(ctx, rab.ID, domain.RABPengadaan); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition going backwards, got %v", err)
	}
	if _, _, err := store.RABs().TransitionStatus(ctx, 404, domain.RABPengadaan); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRABRepository_CascadeNeverMovesLockedLinesBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	g := &domain.Gangguan{
		NomorLH05: "002/ND KAL 2/LH05/2024",
		Materials: []domain.GangguanMaterial{
			{PartNumber: "P009", Jumlah: 1, Status: domain.ProcurementPengadaan},
		},
	}
	if err := store.Gangguan().Create(ctx, g); err != nil {
		t.Fatalf("Create gangguan failed: %v", err)
	}

	newRAB := func(nomor string) *domain.RAB {
		rab := &domain.RAB{
			NomorRAB: nomor,
			Items:    []domain.RABItem{{NomorLH05: g.NomorLH05, PartNumber: "P009", Jumlah: 1}},
		}
		if err := store.RABs().Create(ctx, rab); err != nil {
			t.Fatalf("Create RAB failed: %v", err)
		}
		return rab
	}
	first, second, third := newRAB("RAB-2024-0001"), newRAB("RAB-2024-0002"), newRAB("RAB-2024-0003")

	tests := []struct {
		name    string
		rab     *domain.RAB
		next    domain.RABStatus
		touched int
		want    domain.ProcurementStatus
	}{
		{"first RAB locks Pengadaan", first, domain.RABPengadaan, 1, domain.ProcurementPengadaan},
		{"second RAB moves forward to Tersedia", second, domain.RABTersedia, 1, domain.ProcurementTersedia},
		{"third RAB cannot move it back", third, domain.RABPengadaan, 0, domain.ProcurementTersedia},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, touched, err := store.RABs().TransitionStatus(ctx, tt.rab.ID, tt.next)
			if err != nil {
				t.Fatalf("TransitionStatus failed: %v", err)
			}
			if touched != tt.touched {
				t.Errorf("Expected %d lines touched, got %d", tt.touched, touched)
			}

			lines, _ := store.Gangguan().ListMaterials(ctx, domain.ProcurementFilter{PartNumber: "P009"})
			if len(lines) != 1 || lines[0].Status != tt.want || !lines[0].LockedByRAB {
				t.Errorf("Expected P009 %s and locked, got %+v", tt.want, lines)
			}
		})
	}
}

func TestPartRepository_Search(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Parts()

	n, err := repo.Upsert(ctx, []domain.Part{
		{PartNumber: "P001", Material: "Filter Oli"},
		{PartNumber: "P002", Material: "Filter Udara"},
		{PartNumber: "X100", Material: "Nozzle"},
	})
	if err != nil || n != 3 {
		t.Fatalf("Upsert failed: %v (%d)", err, n)
	}

	tests := []struct {
		query string
		limit int
		want  int
	}{
		{"filter", 0, 2},
		{"x1", 0, 1},
		{"", 2, 2},
		{"none", 0, 0},
	}
	for _, tt := range tests {
		got, err := repo.Search(ctx, tt.query, tt.limit)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q, %d): expected %d, got %d", tt.query, tt.limit, tt.want, len(got))
		}
	}
}
