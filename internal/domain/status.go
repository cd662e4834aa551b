package domain

import "strings"

// Stock statuses.
const (
	StockHabis       = "Habis"
	StockHampirHabis = "Hampir Habis"
	StockTersedia    = "Tersedia"
)

// Lifecycle statuses of an installed component.
const (
	AgeTerpasang      = "Terpasang"
	AgeMendekatiBatas = "MendekatiBatas"
	AgePerluDiganti   = "PerluDiganti"
)

// ProcurementStatus is the workflow state of a gangguan material line.
type ProcurementStatus string

const (
	ProcurementPengadaan ProcurementStatus = "Pengadaan"
	ProcurementTunda     ProcurementStatus = "Tunda"
	ProcurementTerkirim  ProcurementStatus = "Terkirim"
	ProcurementReject    ProcurementStatus = "Reject"
	ProcurementTersedia  ProcurementStatus = "Tersedia"
)

// ProcurementStatuses lists every procurement status in dashboard order.
var ProcurementStatuses = []ProcurementStatus{
	ProcurementPengadaan,
	ProcurementTunda,
	ProcurementTerkirim,
	ProcurementReject,
	ProcurementTersedia,
}

var procurementStatusCodes = map[string]ProcurementStatus{
	"pengadaan": ProcurementPengadaan,
	"tunda":     ProcurementTunda,
	"terkirim":  ProcurementTerkirim,
	"reject":    ProcurementReject,
	"tersedia":  ProcurementTersedia,
}

// ParseProcurementStatus returns the status for a given label (case-insensitive).
func ParseProcurementStatus(label string) (ProcurementStatus, bool) {
	status, ok := procurementStatusCodes[strings.ToLower(strings.TrimSpace(label))]

	return status, ok
}

// RABStatus is the lifecycle state of a budget document.
type RABStatus string

const (
	RABDraft     RABStatus = "Draft"
	RABPengadaan RABStatus = "Pengadaan"
	RABTersedia  RABStatus = "Tersedia"
)

var rabStatusRank = map[RABStatus]int{
	RABDraft:     0,
	RABPengadaan: 1,
	RABTersedia:  2,
}

// ParseRABStatus returns the RAB status for a given label (case-insensitive).
func ParseRABStatus(label string) (RABStatus, bool) {
	for status := range rabStatusRank {
		if strings.EqualFold(string(status), strings.TrimSpace(label)) {
			return status, true
		}
	}

	return "", false
}

// Rank orders RAB statuses; transitions may only move to a higher rank.
func (s RABStatus) Rank() int {
	if rank, ok := rabStatusRank[s]; ok {
		return rank
	}

	return -1
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s RABStatus) CanTransitionTo(next RABStatus) bool {
	return next.Rank() > s.Rank() && s.Rank() >= 0
}

// CascadeStatus returns the gangguan material status pushed by a RAB status, if any.
func (s RABStatus) CascadeStatus() (ProcurementStatus, bool) {
	switch s {
	case RABPengadaan:
		return ProcurementPengadaan, true
	case RABTersedia:
		return ProcurementTersedia, true
	}

	return "", false
}

var cascadeRank = map[ProcurementStatus]int{
	ProcurementPengadaan: 1,
	ProcurementTersedia:  2,
}

// AcceptsCascade reports whether a RAB cascade may set the line to next. Lines
// already locked by a RAB only move forward, from Pengadaan to Tersedia.
func (m GangguanMaterial) AcceptsCascade(next ProcurementStatus) bool {
	if !m.LockedByRAB {
		return true
	}

	return cascadeRank[m.Status] < cascadeRank[next]
}
