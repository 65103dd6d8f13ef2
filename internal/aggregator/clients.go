package aggregator

import (
	"sort"

	"github.com/shopspring/decimal"

	"revenue-dashboard/internal/models"
)

// DefaultTopClients is the number of clients in the top clients ranking
const DefaultTopClients = 15

// ClientRevenue is the summed revenue of one client
type ClientRevenue struct {
	Client  string          `json:"client"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TopClients ranks clients by summed revenue, highest first, and keeps the
// first n. Clients with equal revenue keep the order in which they first
// appear in facts. A non-positive n keeps every client.
func TopClients(facts []models.FactRecord, n int) []ClientRevenue {
	index := make(map[string]int)
	var ranked []ClientRevenue
	for _, f := range facts {
		i, ok := index[f.Client]
		if !ok {
			i = len(ranked)
			index[f.Client] = i
			ranked = append(ranked, ClientRevenue{Client: f.Client})
		}
		ranked[i].Revenue = addNull(ranked[i].Revenue, f.Revenue)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []ClientRevenue{}
	}
	return ranked
}
