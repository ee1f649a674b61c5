// Package domain holds the core search types shared across the module.
package domain

// Domain identifies a maintenance area a query can express intent for.
type Domain string

// Known intent domains. DomainNone means the query carries no action intent.
const (
	DomainNone         Domain = ""
	DomainCrew         Domain = "crew"
	DomainParts        Domain = "parts"
	DomainReceiving    Domain = "receiving"
	DomainDocuments    Domain = "documents"
	DomainFaults       Domain = "faults"
	DomainShoppingList Domain = "shopping_list"
	DomainCertificates Domain = "certificates"
	DomainWorkOrders   Domain = "work_orders"
)

// SearchResult is a single entity hit from the search service.
// ID and Type together identify an entity across domains.
type SearchResult struct {
	ID       string
	Type     string
	Title    string
	Subtitle string
	Snippet  string
	Score    float64
	Actions  []string
	Metadata map[string]any
}

// ActionSuggestion is a domain-scoped operation suggested for the current query,
// e.g. "create work order". Fetched independently of the main result set.
type ActionSuggestion struct {
	Domain Domain `json:"domain"`
	Label  string `json:"label"`
	Action string `json:"action"`
}
