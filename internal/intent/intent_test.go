package intent

import (
	"testing"

	"github.com/pelorus-marine/spyglass/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    domain.Domain
		matched bool
	}{
		{"empty", "", domain.DomainNone, false},
		{"whitespace only", "   ", domain.DomainNone, false},
		{"no intent", "overhaul engine", domain.DomainNone, false},
		{"work order phrase", "create work order", domain.DomainWorkOrders, true},
		{"work order plural", "overdue work orders", domain.DomainWorkOrders, true},
		{"fault", "bilge fault", domain.DomainFaults, true},
		{"certificate", "class certificate", domain.DomainCertificates, true},
		{"crew", "crew rotation", domain.DomainCrew, true},
		{"parts", "spare parts list", domain.DomainParts, true},
		{"receiving", "delivery for engine room", domain.DomainReceiving, true},
		{"documents", "engine manual", domain.DomainDocuments, true},
		{"shopping phrase", "add to shopping list", domain.DomainShoppingList, true},
		{"case insensitive", "CREATE WORK ORDER", domain.DomainWorkOrders, true},
		{"trimmed", "  fault  ", domain.DomainFaults, true},
		{"token not substring", "partition drawing review", domain.DomainDocuments, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.query)
			if ok != tt.matched {
				t.Fatalf("Classify(%q) matched = %v, want %v", tt.query, ok, tt.matched)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

// "critical" appears in both the faults and work_orders keyword lists;
// the precedence table must pick faults.
func TestClassifyPrecedence(t *testing.T) {
	got, ok := Classify("critical")
	if !ok {
		t.Fatal("expected a match for \"critical\"")
	}
	if got != domain.DomainFaults {
		t.Errorf("Classify(\"critical\") = %q, want %q", got, domain.DomainFaults)
	}

	// crew outranks everything, even when a lower domain also matches.
	got, ok = Classify("crew shopping purchase")
	if !ok || got != domain.DomainCrew {
		t.Errorf("Classify(\"crew shopping purchase\") = %q (ok=%v), want crew", got, ok)
	}

	// parts outranks faults.
	got, ok = Classify("critical spare")
	if !ok || got != domain.DomainParts {
		t.Errorf("Classify(\"critical spare\") = %q (ok=%v), want parts", got, ok)
	}
}
