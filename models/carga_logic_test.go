package models

import "testing"

func TestCheckEditAllowed(t *testing.T) {
	creator := actor{UserId: 7, Role: UserRoleMinisterio, MinisterioId: 1}
	other := actor{UserId: 9, Role: UserRoleMinisterio, MinisterioId: 1}
	reviewer := actor{UserId: 1, Role: UserRoleAdmin}

	if err := checkEditAllowed(CargaStatusDraft, creator, 7); err != nil {
		t.Fatalf("creator should edit own draft: %v", err)
	}
	if err := checkEditAllowed(CargaStatusDraft, other, 7); err == nil {
		t.Fatal("non-creator ministry user should not edit a draft")
	}
	if err := checkEditAllowed(CargaStatusDraft, reviewer, 7); err != nil {
		t.Fatalf("reviewer should edit any draft: %v", err)
	}

	if err := checkEditAllowed(CargaStatusPending, creator, 7); err == nil {
		t.Fatal("creator should not edit a pending carga")
	}
	if err := checkEditAllowed(CargaStatusPending, reviewer, 7); err != nil {
		t.Fatalf("reviewer should edit a pending carga: %v", err)
	}

	for _, estado := range []CargaStatus{CargaStatusValidated, CargaStatusObserved, CargaStatusRejected} {
		if err := checkEditAllowed(estado, reviewer, 7); err == nil {
			t.Fatalf("terminal state %q should be frozen", estado)
		}
	}
}

func TestCheckRevisionInput(t *testing.T) {
	if err := checkRevisionInput(CargaStatusValidated, ""); err != nil {
		t.Fatalf("validated without observations should pass: %v", err)
	}
	if err := checkRevisionInput(CargaStatusObserved, ""); err == nil {
		t.Fatal("observed without observations should fail")
	}
	if err := checkRevisionInput(CargaStatusObserved, "  "); err == nil {
		t.Fatal("observed with blank observations should fail")
	}
	if err := checkRevisionInput(CargaStatusObserved, "falta la fuente"); err != nil {
		t.Fatalf("observed with observations should pass: %v", err)
	}
	if err := checkRevisionInput(CargaStatusRejected, "valores inconsistentes"); err != nil {
		t.Fatalf("rejected with observations should pass: %v", err)
	}
	if err := checkRevisionInput(CargaStatusPending, "x"); err == nil {
		t.Fatal("pending is not a review outcome")
	}
	if err := checkRevisionInput(CargaStatusDraft, "x"); err == nil {
		t.Fatal("draft is not a review outcome")
	}
}

func TestCheckMinistryAccess(t *testing.T) {
	reviewer := actor{UserId: 1, Role: UserRoleAdmin}
	ministry := actor{UserId: 2, Role: UserRoleMinisterio, MinisterioId: 3}

	if err := checkMinistryAccess(reviewer, 99); err != nil {
		t.Fatalf("reviewer should act on any ministry: %v", err)
	}
	if err := checkMinistryAccess(ministry, 3); err != nil {
		t.Fatalf("ministry user should act on own ministry: %v", err)
	}
	if err := checkMinistryAccess(ministry, 4); err == nil {
		t.Fatal("ministry user should not act on another ministry")
	}
}

func TestCargaStatusTerminal(t *testing.T) {
	cases := []struct {
		estado   CargaStatus
		terminal bool
	}{
		{CargaStatusDraft, false},
		{CargaStatusPending, false},
		{CargaStatusValidated, true},
		{CargaStatusObserved, true},
		{CargaStatusRejected, true},
	}
	for _, tc := range cases {
		if got := tc.estado.IsTerminal(); got != tc.terminal {
			t.Fatalf("%q.IsTerminal() = %v, expected %v", tc.estado, got, tc.terminal)
		}
	}
}
