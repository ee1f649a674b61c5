package stubserver

import (
	"strings"

	"github.com/pelorus-marine/spyglass/internal/domain"
)

// fixture is one canned entity served by the stub. Current-shape and
// legacy-shape wire encodings are both exercised (see encode below).
type fixture struct {
	ID       string
	Type     string
	Title    string
	Subtitle string
	Snippet  string
	Score    float64
	Actions  []string
	Legacy   bool // emit with the legacy field names
}

var fixtures = []fixture{
	{
		ID: "wo-2214", Type: "work_order", Title: "Overhaul port main engine",
		Subtitle: "Engine room", Snippet: "4000h service due",
		Score: 0.92, Actions: []string{"open", "complete"},
	},
	{
		ID: "wo-2215", Type: "work_order", Title: "Overboard discharge valve inspection",
		Subtitle: "Engine room", Score: 0.81, Actions: []string{"open"},
	},
	{
		ID: "flt-309", Type: "fault", Title: "Critical alarm: bilge high level",
		Subtitle: "Bilge system", Snippet: "raised by monitoring",
		Score: 0.88, Actions: []string{"open", "assign"}, Legacy: true,
	},
	{
		ID: "prt-7731", Type: "part", Title: "Oil filter element MTU 396",
		Subtitle: "Stock: 4", Score: 0.74, Actions: []string{"open", "order"}, Legacy: true,
	},
	{
		ID: "crt-118", Type: "certificate", Title: "Class certificate - hull",
		Subtitle: "Expires 2027-03-01", Score: 0.69, Actions: []string{"open", "renew"},
	},
	{
		ID: "crw-42", Type: "crew", Title: "Chief Engineer rotation plan",
		Subtitle: "Crew", Score: 0.66, Actions: []string{"open"},
	},
	{
		ID: "doc-501", Type: "document", Title: "Overview: planned maintenance system",
		Subtitle: "Manuals", Score: 0.58, Actions: []string{"open"}, Legacy: true,
	},
	{
		ID: "eqp-88", Type: "equipment", Title: "Port main engine",
		Subtitle: "MTU 16V 396 TE94", Score: 0.55, Actions: []string{"open"},
	},
}

// match returns the fixtures whose title contains the query, case-insensitive.
func match(query string) []fixture {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []fixture
	for _, f := range fixtures {
		if strings.Contains(strings.ToLower(f.Title), q) {
			out = append(out, f)
		}
	}
	return out
}

// encode renders a fixture in its wire shape.
func (f fixture) encode() map[string]any {
	actions := make([]any, len(f.Actions))
	for i, a := range f.Actions {
		actions[i] = a
	}
	if f.Legacy {
		return map[string]any{
			"primary_id":   f.ID,
			"source_table": f.Type,
			"title":        f.Title,
			"subtitle":     f.Subtitle,
			"snippet":      f.Snippet,
			"rrf_score":    f.Score,
			"actions":      actions,
		}
	}
	return map[string]any{
		"object_id":   f.ID,
		"object_type": f.Type,
		"fused_score": f.Score,
		"payload": map[string]any{
			"title":    f.Title,
			"subtitle": f.Subtitle,
			"snippet":  f.Snippet,
			"actions":  actions,
		},
	}
}

// suggestionsFor returns the canned action suggestions per domain.
func suggestionsFor(d domain.Domain) []domain.ActionSuggestion {
	switch d {
	case domain.DomainWorkOrders:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Create work order", Action: "work_orders.create"},
			{Domain: d, Label: "View overdue work orders", Action: "work_orders.overdue"},
		}
	case domain.DomainFaults:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Report fault", Action: "faults.create"},
		}
	case domain.DomainParts:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Check stock levels", Action: "parts.stock"},
		}
	case domain.DomainCertificates:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "View expiring certificates", Action: "certificates.expiring"},
		}
	case domain.DomainCrew:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Open crew list", Action: "crew.list"},
		}
	case domain.DomainDocuments:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Browse documents", Action: "documents.browse"},
		}
	case domain.DomainReceiving:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Record delivery", Action: "receiving.create"},
		}
	case domain.DomainShoppingList:
		return []domain.ActionSuggestion{
			{Domain: d, Label: "Open shopping list", Action: "shopping_list.open"},
		}
	default:
		return nil
	}
}
