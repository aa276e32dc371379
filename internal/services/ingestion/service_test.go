package ingestion

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khiari-mohamed/ARS-sub010/internal/models"
)

type fakeResolver struct {
	adherents []models.Adherent
}

func (f *fakeResolver) FindByMatricules(matricules []string, clientID uuid.UUID) ([]models.Adherent, error) {
	want := make(map[string]bool, len(matricules))
	for _, m := range matricules {
		want[m] = true
	}
	var out []models.Adherent
	for _, a := range f.adherents {
		if want[a.Matricule] {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(adherents ...models.Adherent) *Service {
	return NewService(&fakeResolver{adherents: adherents}, nil, nil, nil, nil)
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

func TestReconcileAggregatesByMatricule(t *testing.T) {
	svc := newTestService(
		models.Adherent{ID: uuid.New(), Matricule: "M001", Nom: "BEN", Prenom: "SALAH", RIB: "04125896325874125896"},
		models.Adherent{ID: uuid.New(), Matricule: "M002", Nom: "TRABELSI", Prenom: "AMEL", RIB: "10006035009876543210"},
	)

	rows := []RawRow{
		{Num: 2, Matricule: "M001", Montant: d(t, "50.500")},
		{Num: 3, Matricule: "M002", Montant: d(t, "10.000")},
		{Num: 4, Matricule: "M001", Montant: d(t, "20.000")},
	}

	res, err := svc.Reconcile(rows, nil, uuid.Nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(res.Lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(res.Lines), res.Lines)
	}
	if res.Lines[0].Matricule != "M001" || !res.Lines[0].Montant.Equal(d(t, "70.500")) {
		t.Errorf("M001 line = %+v, want 70.500", res.Lines[0])
	}
	if res.Lines[1].Matricule != "M002" || !res.Lines[1].Montant.Equal(d(t, "10.000")) {
		t.Errorf("M002 line = %+v, want 10.000", res.Lines[1])
	}
	for _, line := range res.Lines {
		if line.Statut != models.StatutItemValide {
			t.Errorf("line %s statut = %s, want VALIDE (%s)", line.Matricule, line.Statut, line.Erreur)
		}
	}

	sum := res.Summary
	if sum.TotalRows != 3 || sum.ValidRows != 2 || sum.ErrorRows != 0 || sum.UniqueAdherents != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if !sum.TotalAmount.Equal(d(t, "80.500")) {
		t.Errorf("total = %s, want 80.500", sum.TotalAmount)
	}
}

func TestReconcileOrderIndependent(t *testing.T) {
	svc := newTestService(
		models.Adherent{ID: uuid.New(), Matricule: "M001", RIB: "04125896325874125896"},
		models.Adherent{ID: uuid.New(), Matricule: "M002", RIB: "10006035009876543210"},
	)

	forward := []RawRow{
		{Matricule: "M001", Montant: d(t, "50.500")},
		{Matricule: "M002", Montant: d(t, "10.000")},
		{Matricule: "M001", Montant: d(t, "20.000")},
	}
	reversed := []RawRow{forward[2], forward[1], forward[0]}

	a, err := svc.Reconcile(forward, nil, uuid.Nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Reconcile(reversed, nil, uuid.Nil)
	if err != nil {
		t.Fatal(err)
	}

	if !a.Summary.TotalAmount.Equal(b.Summary.TotalAmount) {
		t.Errorf("totals differ: %s vs %s", a.Summary.TotalAmount, b.Summary.TotalAmount)
	}
	byMat := func(res *Result) map[string]string {
		out := map[string]string{}
		for _, l := range res.Lines {
			out[l.Matricule] = l.Montant.StringFixed(3)
		}
		return out
	}
	am, bm := byMat(a), byMat(b)
	for m, v := range am {
		if bm[m] != v {
			t.Errorf("matricule %s: %s vs %s", m, v, bm[m])
		}
	}
}

func TestReconcileClassification(t *testing.T) {
	sharedRib := "12034056007812345678"
	svc := newTestService(
		models.Adherent{ID: uuid.New(), Matricule: "OK", RIB: "04125896325874125896"},
		models.Adherent{ID: uuid.New(), Matricule: "NORIB"},
		models.Adherent{ID: uuid.New(), Matricule: "BADRIB", RIB: "123"},
		models.Adherent{ID: uuid.New(), Matricule: "DUP1", RIB: sharedRib},
		models.Adherent{ID: uuid.New(), Matricule: "DUP2", RIB: sharedRib},
	)

	rows := []RawRow{
		{Matricule: "OK", Montant: d(t, "1.000")},
		{Matricule: "NORIB", Montant: d(t, "2.000")},
		{Matricule: "BADRIB", Montant: d(t, "3.000")},
		{Matricule: "DUP1", Montant: d(t, "4.000")},
		{Matricule: "DUP2", Montant: d(t, "5.000")},
		{Matricule: "GHOST", Montant: d(t, "6.000")},
		{Matricule: "ZERO", Montant: d(t, "0")},
	}

	res, err := svc.Reconcile(rows, []RowError{{Row: 9, Reason: "unparseable montant"}}, uuid.Nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	statuts := map[string]Line{}
	for _, l := range res.Lines {
		statuts[l.Matricule] = l
	}

	if statuts["OK"].Statut != models.StatutItemValide {
		t.Errorf("OK: %+v", statuts["OK"])
	}
	for _, m := range []string{"NORIB", "BADRIB", "DUP1", "DUP2", "GHOST", "ZERO"} {
		if statuts[m].Statut != models.StatutItemErreur {
			t.Errorf("%s statut = %s, want ERREUR", m, statuts[m].Statut)
		}
	}
	if statuts["GHOST"].Erreur != ErrUnknownMatricule.Error() {
		t.Errorf("GHOST erreur = %q", statuts["GHOST"].Erreur)
	}
	if statuts["ZERO"].Erreur != "montant non positif 0" {
		t.Errorf("ZERO erreur = %q", statuts["ZERO"].Erreur)
	}

	sum := res.Summary
	if sum.ValidRows != 1 || sum.ErrorRows != 7 {
		t.Errorf("summary = %+v", sum)
	}
	if !sum.TotalAmount.Equal(d(t, "1.000")) {
		t.Errorf("total = %s, only VALIDE lines count", sum.TotalAmount)
	}
}

func TestCreateOrdreVirementRequiresValidLines(t *testing.T) {
	svc := newTestService()
	if _, err := svc.CreateOrdreVirement(CreateInput{Result: &Result{}}); err != ErrNoValidLines {
		t.Errorf("got %v, want ErrNoValidLines", err)
	}
	if _, err := svc.CreateOrdreVirement(CreateInput{}); err != ErrNoValidLines {
		t.Errorf("nil result: got %v, want ErrNoValidLines", err)
	}
}
