// Package recommend builds per-customer product recommendations from
// pairwise co-occurrence of purchased products.
package recommend

import (
	"sort"
	"strings"
	"unicode"

	"github.com/patrona/patrona/pkg/types"
)

const maxRecommendations = 5

func isDelimiter(r rune) bool {
	return r == '×' || r == ',' || r == '|'
}

// SplitProducts parses a transaction's free-text product field into clean
// product tokens. Trimmed tokens containing a digit are quantity or unit
// noise and are dropped.
func SplitProducts(text string) []string {
	var out []string
	for _, token := range strings.FieldsFunc(text, isDelimiter) {
		token = strings.TrimSpace(token)
		if token == "" || strings.ContainsFunc(token, unicode.IsDigit) {
			continue
		}
		out = append(out, token)
	}
	return out
}

// counts accumulates keyed tallies while remembering first-insertion order,
// which downstream sorting uses as the tie-break.
type counts struct {
	order []int
	index map[int]int
	vals  []float64
}

func newCounts() *counts {
	return &counts{index: make(map[int]int)}
}

func (c *counts) add(key int, delta float64) {
	pos, ok := c.index[key]
	if !ok {
		pos = len(c.order)
		c.index[key] = pos
		c.order = append(c.order, key)
		c.vals = append(c.vals, 0)
	}
	c.vals[pos] += delta
}

// Recommendations derives up to five products per customer: products the
// customer has not bought, ranked by summed co-occurrence with the products
// they have. Ties keep first-seen order. Customers with no parsed products
// get an empty list.
func Recommendations(transactions []types.TransactionRecord) types.RecommendationMap {
	// Intern product names so ordered structures can key on ints.
	productIndex := make(map[string]int)
	var productNames []string
	intern := func(name string) int {
		if id, ok := productIndex[name]; ok {
			return id
		}
		id := len(productNames)
		productIndex[name] = id
		productNames = append(productNames, name)
		return id
	}

	// Per-customer distinct product sets, customers in first-seen order.
	var customerOrder []string
	owned := make(map[string][]int)
	ownedSet := make(map[string]map[int]struct{})
	for _, t := range transactions {
		if _, ok := ownedSet[t.CustomerID]; !ok {
			customerOrder = append(customerOrder, t.CustomerID)
			ownedSet[t.CustomerID] = make(map[int]struct{})
		}
		set := ownedSet[t.CustomerID]
		for _, name := range SplitProducts(t.Products) {
			id := intern(name)
			if _, dup := set[id]; dup {
				continue
			}
			set[id] = struct{}{}
			owned[t.CustomerID] = append(owned[t.CustomerID], id)
		}
	}

	// Directed co-occurrence counts between every pair of products bought
	// by the same customer.
	coOccur := make(map[int]*counts)
	for _, customer := range customerOrder {
		products := owned[customer]
		for i, a := range products {
			c, ok := coOccur[a]
			if !ok {
				c = newCounts()
				coOccur[a] = c
			}
			for j, b := range products {
				if i != j {
					c.add(b, 1)
				}
			}
		}
	}

	out := make(types.RecommendationMap, len(customerOrder))
	for _, customer := range customerOrder {
		scores := newCounts()
		set := ownedSet[customer]
		for _, product := range owned[customer] {
			c, ok := coOccur[product]
			if !ok {
				continue
			}
			for pos, related := range c.order {
				if _, has := set[related]; !has {
					scores.add(related, c.vals[pos])
				}
			}
		}

		ranked := make([]int, len(scores.order))
		copy(ranked, scores.order)
		sort.SliceStable(ranked, func(i, j int) bool {
			return scores.vals[scores.index[ranked[i]]] > scores.vals[scores.index[ranked[j]]]
		})
		if len(ranked) > maxRecommendations {
			ranked = ranked[:maxRecommendations]
		}

		names := make([]string, len(ranked))
		for i, id := range ranked {
			names[i] = productNames[id]
		}
		out[customer] = names
	}
	return out
}
