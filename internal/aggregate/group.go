// Package aggregate groups validated source rows by payer and client and
// computes the per-group sums injected into the invoice templates.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/mapping"
)

// Row is one source record keyed by column name
type Row = map[string]string

// ClientGroup holds all rows of one client under one payer
type ClientGroup struct {
	Key  string
	Rows []Row
}

// PayerGroup holds all rows billed to one payer
type PayerGroup struct {
	Key     string
	Rows    []Row
	Clients []ClientGroup
}

// GroupRows splits the rows by payer key, then by client key within each
// payer. Groups are ordered by key so a batch run is deterministic.
func GroupRows(rows []Row, payerKey, clientKey string) []PayerGroup {
	byPayer := make(map[string][]Row)
	for _, row := range rows {
		key := row[payerKey]
		byPayer[key] = append(byPayer[key], row)
	}

	payerKeys := make([]string, 0, len(byPayer))
	for k := range byPayer {
		payerKeys = append(payerKeys, k)
	}
	sort.Strings(payerKeys)

	groups := make([]PayerGroup, 0, len(payerKeys))
	for _, pk := range payerKeys {
		payerRows := byPayer[pk]

		byClient := make(map[string][]Row)
		for _, row := range payerRows {
			key := row[clientKey]
			byClient[key] = append(byClient[key], row)
		}
		clientKeys := make([]string, 0, len(byClient))
		for k := range byClient {
			clientKeys = append(clientKeys, k)
		}
		sort.Strings(clientKeys)

		clients := make([]ClientGroup, 0, len(clientKeys))
		for _, ck := range clientKeys {
			clients = append(clients, ClientGroup{Key: ck, Rows: byClient[ck]})
		}
		groups = append(groups, PayerGroup{Key: pk, Rows: payerRows, Clients: clients})
	}
	return groups
}

// Totals sums the given columns over the rows. Cells that hold no number
// contribute nothing; decimals keep currency sums exact.
func Totals(rows []Row, sumColumns []config.ColumnSpec) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(sumColumns))
	for _, col := range sumColumns {
		sum := decimal.Zero
		for _, row := range rows {
			if v, ok := mapping.CellFloat(row[col.Name]); ok {
				sum = sum.Add(decimal.NewFromFloat(v))
			}
		}
		totals[col.Name] = sum
	}
	return totals
}

// Positions extracts the position columns of each row, in spec order
func Positions(rows []Row, positionColumns []config.ColumnSpec) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		pos := make(map[string]string, len(positionColumns))
		for _, col := range positionColumns {
			pos[col.Name] = row[col.Name]
		}
		out = append(out, pos)
	}
	return out
}
