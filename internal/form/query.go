package form

import (
	"net/url"
	"strings"
)

// Query keys understood by GET /orders.
const (
	QueryName       = "name"
	QueryCategory   = "category"
	QueryAvailable  = "available"
	QueryStatus     = "status_name"
	QueryCustomerID = "customer_id"
)

// Filter is the sparse set of search fields an operator can fill in.
type Filter struct {
	Name       string `form:"name"`
	Category   string `form:"category"`
	Available  bool   `form:"available"`
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
}

type pair struct {
	key   string
	value string
}

// LegacyQuery builds the flat-form search query. Keys keep the order name,
// category, available; empty values are omitted and available is only sent
// when true.
func LegacyQuery(f Filter) string {
	pairs := []pair{
		{QueryName, f.Name},
		{QueryCategory, f.Category},
	}
	if f.Available {
		pairs = append(pairs, pair{QueryAvailable, "true"})
	}
	return join(pairs)
}

// StatusQuery builds the single-key status lookup query.
func StatusQuery(status string) string {
	return join([]pair{{QueryStatus, status}})
}

// CustomerQuery builds the single-key customer lookup query.
func CustomerQuery(customerID string) string {
	return join([]pair{{QueryCustomerID, customerID}})
}

// OrdersQuery builds the query used to refresh the order table from the
// status and customer filters. Either may be empty.
func OrdersQuery(f Filter) string {
	return join([]pair{
		{QueryStatus, f.Status},
		{QueryCustomerID, f.CustomerID},
	})
}

func join(pairs []pair) string {
	var b strings.Builder
	for _, p := range pairs {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}
