package models

import "errors"

type CargaStatus string

const (
	CargaStatusDraft     CargaStatus = "Draft"
	CargaStatusPending   CargaStatus = "Pending"
	CargaStatusValidated CargaStatus = "Validated"
	CargaStatusObserved  CargaStatus = "Observed"
	CargaStatusRejected  CargaStatus = "Rejected"
)

// Terminal states admit no further transitions on the same record;
// re-submission after Observed/Rejected means creating a new carga.
func (s CargaStatus) IsTerminal() bool {
	switch s {
	case CargaStatusValidated, CargaStatusObserved, CargaStatusRejected:
		return true
	}
	return false
}

func (s CargaStatus) Valid() bool {
	switch s {
	case CargaStatusDraft, CargaStatusPending, CargaStatusValidated, CargaStatusObserved, CargaStatusRejected:
		return true
	}
	return false
}

func ParseCargaStatus(str string) (CargaStatus, error) {
	s := CargaStatus(str)
	if !s.Valid() {
		return "", errors.New("invalid carga status")
	}
	return s, nil
}

type Periodicity string

const (
	PeriodicityMensual    Periodicity = "mensual"
	PeriodicityTrimestral Periodicity = "trimestral"
	PeriodicitySemestral  Periodicity = "semestral"
	PeriodicityAnual      Periodicity = "anual"
)

func (p Periodicity) Valid() bool {
	switch p {
	case PeriodicityMensual, PeriodicityTrimestral, PeriodicitySemestral, PeriodicityAnual:
		return true
	}
	return false
}

func ParsePeriodicity(str string) (Periodicity, error) {
	p := Periodicity(str)
	if !p.Valid() {
		return "", errors.New("invalid periodicity")
	}
	return p, nil
}

type UserRole string

const (
	// UserRoleAdmin users review cargas and manage the catalog.
	UserRoleAdmin UserRole = "A"
	// UserRoleMinisterio users submit cargas for their assigned ministry.
	UserRoleMinisterio UserRole = "M"
)

func (r UserRole) IsReviewer() bool {
	return r == UserRoleAdmin
}
