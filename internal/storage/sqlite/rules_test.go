package sqlite_test

import (
	"testing"

	"github.com/moneyflow-dev/moneyflow/internal/testutil"
)

func TestCreateAndListRules(t *testing.T) {
	logger := testutil.TestLogger(t)
	s := testutil.SetupTestStorage(t, logger)

	keywords := []string{"seven", "starbucks", "lawson"}
	for _, keyword := range keywords {
		if _, err := s.CreateRule(t.Context(), keyword, "Food"); err != nil {
			t.Fatalf("CreateRule(%q) error = %v", keyword, err)
		}
	}

	rules, err := s.ListRules(t.Context())
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}

	if len(rules) != len(keywords) {
		t.Fatalf("ListRules() returned %d rules, want %d", len(rules), len(keywords))
	}

	// Creation order is preserved.
	for i, rule := range rules {
		if rule.Keyword() != keywords[i] {
			t.Errorf("ListRules()[%d].Keyword() = %q, want %q", i, rule.Keyword(), keywords[i])
		}
		if rule.ID() == "" {
			t.Errorf("ListRules()[%d].ID() is empty", i)
		}
	}
}

func TestDuplicateKeywordsAreLegal(t *testing.T) {
	logger := testutil.TestLogger(t)
	s := testutil.SetupTestStorage(t, logger)

	if _, err := s.CreateRule(t.Context(), "lawson", "Food"); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}
	if _, err := s.CreateRule(t.Context(), "lawson", "Shopping"); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	rules, err := s.ListRules(t.Context())
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Errorf("ListRules() returned %d rules, want 2", len(rules))
	}
}

func TestDeleteRule(t *testing.T) {
	logger := testutil.TestLogger(t)
	s := testutil.SetupTestStorage(t, logger)

	rule, err := s.CreateRule(t.Context(), "seven", "Food")
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	if err = s.DeleteRule(t.Context(), rule.ID()); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}

	rules, err := s.ListRules(t.Context())
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("ListRules() returned %d rules after delete, want 0", len(rules))
	}

	// Deleting a missing rule is a no-op.
	if err = s.DeleteRule(t.Context(), "missing-id"); err != nil {
		t.Errorf("DeleteRule() on missing id error = %v, want nil", err)
	}
}
