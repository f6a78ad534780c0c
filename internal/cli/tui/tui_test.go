package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
	"github.com/moneyflow-dev/moneyflow/internal/testutil"
)

func setupModel(t *testing.T) (model, storage.Storage) {
	t.Helper()

	log := testutil.TestLogger(t)
	store := testutil.SetupTestStorage(t, log)

	return newModel(store, rules.NewEngine(store)), store
}

func seedTransaction(t *testing.T, store storage.Storage, date time.Time, amount int64, merchant, category string) storage.Transaction {
	t.Helper()

	transaction := storage.NewTransaction(
		uuid.NewString(),
		date,
		amount,
		merchant,
		"",
		category,
		"PayPay",
		storage.SourcePayPay,
		storage.RecordHash(date, amount, merchant, "", "PayPay"),
		time.Now().UTC(),
	)

	if _, err := store.InsertTransactions(t.Context(), []storage.Transaction{transaction}); err != nil {
		t.Fatalf("InsertTransactions() error = %v", err)
	}

	return transaction
}

func loadRows(t *testing.T, m model) model {
	t.Helper()

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned nil command")
	}

	updated, _ := m.Update(cmd())
	return updated.(model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc       = tea.KeyMsg{Type: tea.KeyEsc}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keyUp        = tea.KeyMsg{Type: tea.KeyUp}
	keyDown      = tea.KeyMsg{Type: tea.KeyDown}
	keyCtrlC     = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func TestLoadRows(t *testing.T) {
	m, store := setupModel(t)

	seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "Food")
	seedTransaction(t, store, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), 580, "Starbucks", "")

	m = loadRows(t, m)

	if len(m.transactions) != 2 {
		t.Fatalf("loaded %d transactions, want 2", len(m.transactions))
	}

	// Newest first.
	if m.transactions[0].Merchant() != "Starbucks" {
		t.Errorf("first row merchant = %q, want Starbucks", m.transactions[0].Merchant())
	}
}

func TestFilterNarrowsLoadedPage(t *testing.T) {
	m, store := setupModel(t)

	seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "Food")
	seedTransaction(t, store, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), 580, "Starbucks", "")

	m = loadRows(t, m)

	updated, _ := m.Update(keyRunes("/"))
	m = updated.(model)
	if !m.filtering {
		t.Fatal("expected filtering mode after /")
	}

	for _, msg := range []tea.Msg{keyRunes("star"), keyEnter} {
		updated, _ = m.Update(msg)
		m = updated.(model)
	}

	visible := m.visible()
	if len(visible) != 1 || visible[0].Merchant() != "Starbucks" {
		t.Fatalf("visible = %d rows, want only Starbucks", len(visible))
	}

	// Esc clears the filter.
	updated, _ = m.Update(keyRunes("/"))
	m = updated.(model)
	updated, _ = m.Update(keyEsc)
	m = updated.(model)

	if len(m.visible()) != 2 {
		t.Errorf("visible after clearing filter = %d rows, want 2", len(m.visible()))
	}
}

func TestEditSaveRoundTrip(t *testing.T) {
	m, store := setupModel(t)

	transaction := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")

	m = loadRows(t, m)

	updated, _ := m.Update(keyRunes("e"))
	m = updated.(model)

	state, ok := m.rowStates[transaction.ID()]
	if !ok || state.mode != modeEditing {
		t.Fatalf("row state after e = %+v, want editing", state)
	}
	if state.candidate != storage.Uncategorized {
		t.Errorf("candidate seeded with %q, want %q", state.candidate, storage.Uncategorized)
	}

	// Replace the candidate wholesale.
	for range len(state.candidate) {
		updated, _ = m.Update(keyBackspace)
		m = updated.(model)
	}
	updated, _ = m.Update(keyRunes("Food"))
	m = updated.(model)

	updated, cmd := m.Update(keyEnter)
	m = updated.(model)

	if m.rowStates[transaction.ID()].mode != modeSaving {
		t.Fatalf("row mode after enter = %v, want saving", m.rowStates[transaction.ID()].mode)
	}
	if cmd == nil {
		t.Fatal("expected a save command")
	}

	updated, _ = m.Update(cmd())
	m = updated.(model)

	if _, ok = m.rowStates[transaction.ID()]; ok {
		t.Error("row state should be cleared after a successful save")
	}

	for _, row := range m.transactions {
		if row.ID() == transaction.ID() && row.Category() != "Food" {
			t.Errorf("row category = %q, want Food", row.Category())
		}
	}

	fresh, err := store.GetTransactionByID(t.Context(), transaction.ID())
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if fresh.Category() != "Food" {
		t.Errorf("stored category = %q, want Food", fresh.Category())
	}
}

func TestBeginEditIsIdempotent(t *testing.T) {
	m, store := setupModel(t)

	transaction := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")

	m = loadRows(t, m)

	m = m.beginEdit(m.transactions[0])
	state := m.rowStates[transaction.ID()]
	state.candidate = "Trav"
	m.rowStates[transaction.ID()] = state

	// A second beginEdit must not clobber the in-progress candidate.
	m = m.beginEdit(m.transactions[0])

	if got := m.rowStates[transaction.ID()].candidate; got != "Trav" {
		t.Errorf("candidate after repeated beginEdit = %q, want Trav", got)
	}
}

func TestSaveFailureKeepsCandidate(t *testing.T) {
	m, store := setupModel(t)

	seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	m = loadRows(t, m)

	id := m.transactions[0].ID()
	m.rowStates[id] = rowState{mode: modeSaving, candidate: "Food"}

	updated, _ := m.Update(categorySavedMsg{id: id, err: errors.New("write failed")})
	m = updated.(model)

	state := m.rowStates[id]
	if state.mode != modeEditing {
		t.Errorf("mode after failed save = %v, want editing", state.mode)
	}
	if state.candidate != "Food" {
		t.Errorf("candidate after failed save = %q, want Food", state.candidate)
	}
	if state.err == nil {
		t.Error("expected the save error on the row")
	}
}

func TestConfirmEmptyCandidateRejected(t *testing.T) {
	m, store := setupModel(t)

	transaction := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	m = loadRows(t, m)

	m.rowStates[transaction.ID()] = rowState{mode: modeEditing, candidate: "  "}

	updated, cmd := m.Update(keyEnter)
	m = updated.(model)

	if cmd != nil {
		t.Error("no save command expected for an empty candidate")
	}

	state := m.rowStates[transaction.ID()]
	if state.mode != modeEditing {
		t.Errorf("mode = %v, want editing", state.mode)
	}

	var validation *rules.ValidationError
	if !errors.As(state.err, &validation) {
		t.Errorf("err = %v, want ValidationError", state.err)
	}
}

func TestCancelDiscardsEdit(t *testing.T) {
	m, store := setupModel(t)

	transaction := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	m = loadRows(t, m)

	m.rowStates[transaction.ID()] = rowState{mode: modeEditing, candidate: "Food"}

	updated, _ := m.Update(keyEsc)
	m = updated.(model)

	if _, ok := m.rowStates[transaction.ID()]; ok {
		t.Error("row state should be discarded on cancel")
	}

	fresh, err := store.GetTransactionByID(t.Context(), transaction.ID())
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if fresh.Category() != storage.Uncategorized {
		t.Errorf("stored category = %q, cancel must not write", fresh.Category())
	}
}

func TestRuleCreationFlow(t *testing.T) {
	m, store := setupModel(t)

	transaction := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Lawson Shibuya", "Food")
	m = loadRows(t, m)

	updated, _ := m.Update(keyRunes("r"))
	m = updated.(model)

	state := m.rowStates[transaction.ID()]
	if state.mode != modeRuleCreation {
		t.Fatalf("mode = %v, want rule creation", state.mode)
	}
	if state.keyword != "lawson" {
		t.Errorf("seeded keyword = %q, want lawson", state.keyword)
	}
	if state.candidate != "Food" {
		t.Errorf("rule category = %q, want Food", state.candidate)
	}

	updated, cmd := m.Update(keyEnter)
	m = updated.(model)
	if cmd == nil {
		t.Fatal("expected a rule creation command")
	}

	updated, _ = m.Update(cmd())
	m = updated.(model)

	if _, ok := m.rowStates[transaction.ID()]; ok {
		t.Error("row state should be cleared after rule creation")
	}

	ruleList, err := m.engine.Rules(t.Context())
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(ruleList) != 1 || ruleList[0].Keyword() != "lawson" {
		t.Fatalf("rules = %d entries, want the lawson rule", len(ruleList))
	}
}

func TestSavingRowIgnoresInput(t *testing.T) {
	m, store := setupModel(t)

	transaction := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	m = loadRows(t, m)

	m.rowStates[transaction.ID()] = rowState{mode: modeSaving, candidate: "Food"}

	updated, cmd := m.Update(keyRunes("x"))
	m = updated.(model)

	if cmd != nil {
		t.Error("no command expected while saving")
	}
	if got := m.rowStates[transaction.ID()].candidate; got != "Food" {
		t.Errorf("candidate = %q, input must be ignored while saving", got)
	}
}

func replaceCandidate(t *testing.T, m model, id, candidate string) model {
	t.Helper()

	for range len(m.rowStates[id].candidate) {
		updated, _ := m.Update(keyBackspace)
		m = updated.(model)
	}

	updated, _ := m.Update(keyRunes(candidate))
	return updated.(model)
}

func TestIndependentRowEdits(t *testing.T) {
	m, store := setupModel(t)

	second := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	first := seedTransaction(t, store, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), 580, "Starbucks", "")

	m = loadRows(t, m)

	// Open an edit on the first row, then move the cursor and open an
	// edit on the second row while the first is still editing.
	updated, _ := m.Update(keyRunes("e"))
	m = updated.(model)
	m = replaceCandidate(t, m, first.ID(), "Food")

	updated, _ = m.Update(keyDown)
	m = updated.(model)
	if m.cursor != 1 {
		t.Fatalf("cursor after down = %d, want 1", m.cursor)
	}

	updated, _ = m.Update(keyRunes("e"))
	m = updated.(model)
	m = replaceCandidate(t, m, second.ID(), "Travel")

	firstState, ok := m.rowStates[first.ID()]
	if !ok || firstState.mode != modeEditing {
		t.Fatalf("first row state = %+v, want editing", firstState)
	}
	secondState, ok := m.rowStates[second.ID()]
	if !ok || secondState.mode != modeEditing {
		t.Fatalf("second row state = %+v, want editing", secondState)
	}

	// Text input reaches only the cursor row.
	if firstState.candidate != "Food" {
		t.Errorf("first candidate = %q, want Food", firstState.candidate)
	}
	if secondState.candidate != "Travel" {
		t.Errorf("second candidate = %q, want Travel", secondState.candidate)
	}
}

func TestConcurrentSavesOnDifferentRows(t *testing.T) {
	m, store := setupModel(t)

	second := seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	first := seedTransaction(t, store, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), 580, "Starbucks", "")

	m = loadRows(t, m)

	updated, _ := m.Update(keyRunes("e"))
	m = updated.(model)
	m = replaceCandidate(t, m, first.ID(), "Food")
	updated, firstSave := m.Update(keyEnter)
	m = updated.(model)
	if firstSave == nil {
		t.Fatal("expected a save command for the first row")
	}

	// The first save is still in flight; the second row can start and
	// finish its own save independently.
	updated, _ = m.Update(keyDown)
	m = updated.(model)
	updated, _ = m.Update(keyRunes("e"))
	m = updated.(model)
	m = replaceCandidate(t, m, second.ID(), "Travel")
	updated, secondSave := m.Update(keyEnter)
	m = updated.(model)
	if secondSave == nil {
		t.Fatal("expected a save command for the second row")
	}

	if m.rowStates[first.ID()].mode != modeSaving || m.rowStates[second.ID()].mode != modeSaving {
		t.Fatalf("row states = %+v, want both saving", m.rowStates)
	}

	updated, _ = m.Update(secondSave())
	m = updated.(model)
	updated, _ = m.Update(firstSave())
	m = updated.(model)

	if len(m.rowStates) != 0 {
		t.Errorf("row states after both saves = %+v, want empty", m.rowStates)
	}

	for id, want := range map[string]string{first.ID(): "Food", second.ID(): "Travel"} {
		fresh, err := store.GetTransactionByID(t.Context(), id)
		if err != nil {
			t.Fatalf("GetTransactionByID() error = %v", err)
		}
		if fresh.Category() != want {
			t.Errorf("stored category = %q, want %q", fresh.Category(), want)
		}
	}
}

func TestNavigationAndQuitDuringSave(t *testing.T) {
	m, store := setupModel(t)

	seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "")
	first := seedTransaction(t, store, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), 580, "Starbucks", "")

	m = loadRows(t, m)
	m.rowStates[first.ID()] = rowState{mode: modeSaving, candidate: "Food"}

	updated, _ := m.Update(keyDown)
	m = updated.(model)
	if m.cursor != 1 {
		t.Errorf("cursor after down = %d, want 1: saving must not trap the cursor", m.cursor)
	}

	updated, _ = m.Update(keyUp)
	m = updated.(model)
	if m.cursor != 0 {
		t.Errorf("cursor after up = %d, want 0", m.cursor)
	}

	_, cmd := m.Update(keyCtrlC)
	if cmd == nil {
		t.Fatal("expected quit command while a save is in flight")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("ctrl+c produced %T, want tea.QuitMsg", cmd())
	}
}

func TestViewRenders(t *testing.T) {
	m, store := setupModel(t)

	seedTransaction(t, store, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1200, "Seven-Eleven", "Food")
	m = loadRows(t, m)

	view := m.View()
	if view == "" {
		t.Fatal("View() returned empty output")
	}
}
