// Package intent classifies free-text queries into zero-or-one action
// domain. Pure and stateless: keyword membership against fixed per-domain
// lists, with a fixed precedence when several domains match.
package intent

import (
	"strings"

	"github.com/pelorus-marine/spyglass/internal/domain"
)

// precedence is the tie-break order when a query matches several domains.
// Earlier entries win.
var precedence = []domain.Domain{
	domain.DomainCrew,
	domain.DomainParts,
	domain.DomainReceiving,
	domain.DomainDocuments,
	domain.DomainFaults,
	domain.DomainShoppingList,
	domain.DomainCertificates,
	domain.DomainWorkOrders,
}

// keywords lists the trigger terms per domain. Single words match whole
// query tokens; multi-word phrases match as substrings of the query.
var keywords = map[domain.Domain][]string{
	domain.DomainCrew: {
		"crew", "captain", "engineer", "deckhand", "stewardess", "rotation",
	},
	domain.DomainParts: {
		"part", "parts", "spare", "spares", "inventory", "stock",
	},
	domain.DomainReceiving: {
		"receiving", "receive", "delivery", "shipment", "consignment",
	},
	domain.DomainDocuments: {
		"document", "documents", "manual", "drawing", "procedure", "sop",
	},
	domain.DomainFaults: {
		"fault", "faults", "defect", "breakdown", "alarm", "critical",
	},
	domain.DomainShoppingList: {
		"shopping", "shopping list", "purchase", "buy",
	},
	domain.DomainCertificates: {
		"certificate", "certificates", "cert", "survey", "expiry", "flag state",
	},
	domain.DomainWorkOrders: {
		"work order", "work orders", "workorder", "job", "task", "maintenance",
		"service", "critical",
	},
}

// Classify maps a query to its action domain. The second return is false
// when the query carries no recognizable intent.
func Classify(query string) (domain.Domain, bool) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return domain.DomainNone, false
	}
	tokens := strings.Fields(normalized)

	for _, d := range precedence {
		if matches(normalized, tokens, keywords[d]) {
			return d, true
		}
	}
	return domain.DomainNone, false
}

func matches(query string, tokens []string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(term, " ") {
			if strings.Contains(query, term) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == term {
				return true
			}
		}
	}
	return false
}
