package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

// pageSize matches the API page size. The filter narrows the loaded page
// only; it never reaches back into storage.
const pageSize = 20

type rowMode int

const (
	modeViewing rowMode = iota
	modeEditing
	modeSaving
	modeRuleCreation
)

// rowState carries the edit state of a single row. A row with no entry in
// the state map is Viewing. The candidate survives a failed save so the
// user never retypes it.
type rowState struct {
	mode        rowMode
	candidate   string
	keyword     string
	suggestions []string
	err         error
}

type rowsLoadedMsg struct {
	transactions []storage.Transaction
	err          error
}

type categorySavedMsg struct {
	id          string
	transaction storage.Transaction
	err         error
}

type ruleCreatedMsg struct {
	id  string
	err error
}

type model struct {
	store  storage.Storage
	engine *rules.Engine

	transactions []storage.Transaction
	rowStates    map[string]rowState

	cursor    int
	filter    string
	filtering bool

	keys keymap
	help help.Model

	width  int
	height int

	err error
}

func newModel(store storage.Storage, engine *rules.Engine) model {
	return model{
		store:     store,
		engine:    engine,
		rowStates: map[string]rowState{},
		keys:      defaultKeymap(),
		help:      help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return m.loadRows()
}

func (m model) loadRows() tea.Cmd {
	return func() tea.Msg {
		transactions, err := m.store.ListTransactions(context.Background(), 0, pageSize)
		return rowsLoadedMsg{transactions: transactions, err: err}
	}
}

func (m model) saveCategory(id, category string) tea.Cmd {
	return func() tea.Msg {
		transaction, err := m.store.UpdateTransactionCategory(context.Background(), id, category)
		return categorySavedMsg{id: id, transaction: transaction, err: err}
	}
}

func (m model) createRule(id, keyword, category string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.engine.CreateRule(context.Background(), keyword, category)
		return ruleCreatedMsg{id: id, err: err}
	}
}

// visible returns the loaded page narrowed by the current filter: a
// case-insensitive substring match over merchant, description and source.
func (m model) visible() []storage.Transaction {
	if m.filter == "" {
		return m.transactions
	}

	needle := strings.ToLower(m.filter)
	matched := []storage.Transaction{}
	for _, t := range m.transactions {
		if strings.Contains(strings.ToLower(t.Merchant()), needle) ||
			strings.Contains(strings.ToLower(t.Description()), needle) ||
			strings.Contains(strings.ToLower(t.Source()), needle) {
			matched = append(matched, t)
		}
	}
	return matched
}

func (m model) currentRow() (storage.Transaction, bool) {
	visible := m.visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return nil, false
	}
	return visible[m.cursor], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case rowsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.transactions = msg.transactions
		m.clampCursor()
		return m, nil
	case categorySavedMsg:
		return m.handleCategorySaved(msg), nil
	case ruleCreatedMsg:
		return m.handleRuleCreated(msg), nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleCategorySaved(msg categorySavedMsg) model {
	state, ok := m.rowStates[msg.id]
	if !ok {
		return m
	}

	if msg.err != nil {
		// Back to editing with the candidate intact.
		state.mode = modeEditing
		state.err = msg.err
		m.rowStates[msg.id] = state
		return m
	}

	for i, t := range m.transactions {
		if t.ID() == msg.id {
			m.transactions[i] = msg.transaction
			break
		}
	}

	delete(m.rowStates, msg.id)

	return m
}

func (m model) handleRuleCreated(msg ruleCreatedMsg) model {
	state, ok := m.rowStates[msg.id]
	if !ok {
		return m
	}

	if msg.err != nil {
		state.mode = modeRuleCreation
		state.err = msg.err
		m.rowStates[msg.id] = state
		return m
	}

	delete(m.rowStates, msg.id)

	return m
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg), nil
	}

	// Arrow keys and ctrl+c always act globally. Rows are independent: an
	// edit or in-flight save on one row must never trap the cursor or
	// block quitting. The j/k/q runes stay available as text input while
	// a row is being edited.
	switch msg.Type {
	case tea.KeyUp, tea.KeyDown, tea.KeyCtrlC:
		return m.handleGlobalKey(msg)
	default:
	}

	row, ok := m.currentRow()
	if ok {
		if state, editing := m.rowStates[row.ID()]; editing {
			return m.handleRowKey(msg, row, state)
		}
	}

	return m.handleGlobalKey(msg)
}

func (m model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	row, ok := m.currentRow()

	switch {
	case key.Matches(msg, m.keys.Exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
	case key.Matches(msg, m.keys.Edit):
		if ok {
			m = m.beginEdit(row)
		}
	case key.Matches(msg, m.keys.Rule):
		if ok {
			m = m.beginRuleCreation(row)
		}
	}

	return m, nil
}

// beginEdit opens the category editor for a row. Calling it on a row that
// is already editing keeps the candidate untouched.
func (m model) beginEdit(row storage.Transaction) model {
	if state, ok := m.rowStates[row.ID()]; ok && state.mode == modeEditing {
		return m
	}

	m.rowStates[row.ID()] = rowState{
		mode:      modeEditing,
		candidate: row.Category(),
	}

	return m
}

func (m model) beginRuleCreation(row storage.Transaction) model {
	if _, ok := m.rowStates[row.ID()]; ok {
		return m
	}

	suggestions := rules.SuggestKeywords(row.Merchant())

	state := rowState{
		mode:        modeRuleCreation,
		candidate:   row.Category(),
		suggestions: suggestions,
	}
	if len(suggestions) > 0 {
		state.keyword = suggestions[0]
	}

	m.rowStates[row.ID()] = state

	return m
}

func (m model) handleRowKey(msg tea.KeyMsg, row storage.Transaction, state rowState) (tea.Model, tea.Cmd) {
	if state.mode == modeSaving {
		// An async write is in flight; ignore edits on this row until it
		// lands. Navigation and quit were already handled globally.
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		delete(m.rowStates, row.ID())
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.confirmRow(row, state)
	}

	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		if state.mode == modeRuleCreation {
			state.keyword += text
		} else {
			state.candidate += text
		}
		state.err = nil
		m.rowStates[row.ID()] = state
	case tea.KeyBackspace:
		if state.mode == modeRuleCreation {
			state.keyword = trimLastRune(state.keyword)
		} else {
			state.candidate = trimLastRune(state.candidate)
		}
		m.rowStates[row.ID()] = state
	default:
	}

	return m, nil
}

func (m model) confirmRow(row storage.Transaction, state rowState) (tea.Model, tea.Cmd) {
	switch state.mode {
	case modeEditing:
		if strings.TrimSpace(state.candidate) == "" {
			state.err = &rules.ValidationError{Field: "category"}
			m.rowStates[row.ID()] = state
			return m, nil
		}

		state.mode = modeSaving
		state.err = nil
		m.rowStates[row.ID()] = state
		return m, m.saveCategory(row.ID(), state.candidate)
	case modeRuleCreation:
		state.mode = modeSaving
		state.err = nil
		m.rowStates[row.ID()] = state
		return m, m.createRule(row.ID(), state.keyword, state.candidate)
	default:
		return m, nil
	}
}

func (m model) handleFilterKey(msg tea.KeyMsg) model {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter = ""
		m.filtering = false
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyBackspace:
		m.filter = trimLastRune(m.filter)
	case tea.KeyRunes, tea.KeySpace:
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		m.filter += text
	default:
	}

	m.clampCursor()

	return m
}

func (m *model) clampCursor() {
	visible := m.visible()
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func trimLastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}
