package posting

import (
	"sort"
	"strings"
	"time"

	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

// dateLayouts are the operator date formats accepted when deriving a voucher date
var dateLayouts = []string{
	ledger.DateLayout,
	"2006/01/02",
	"02/01/2006",
	time.RFC3339,
}

// Group is the set of rows that will become one voucher
type Group struct {
	DocNo       string
	Rows        []staging.Row
	Date        string
	Description string
	TotalAmount int64
}

// RowIDs returns the ids of the member rows in line order
func (g Group) RowIDs() []string {
	ids := make([]string, len(g.Rows))
	for i, row := range g.Rows {
		ids[i] = row.ID
	}
	return ids
}

// MissingFields lists the required fields row lacks, in the order they are reported
func MissingFields(row staging.Row) []string {
	var missing []string
	if strings.TrimSpace(row.DocNo) == "" {
		missing = append(missing, "document number")
	}
	if strings.TrimSpace(row.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(row.DebitAccount) == "" {
		missing = append(missing, "debit account")
	}
	if strings.TrimSpace(row.CreditAccount) == "" {
		missing = append(missing, "credit account")
	}
	if row.Amount <= 0 {
		missing = append(missing, "amount")
	}
	return missing
}

// GroupRows partitions structurally valid rows by document number.
// Rows are ordered by row index then id first, so the result does not depend
// on the order of the input. Groups appear in order of their first row.
func GroupRows(rows []staging.Row, today time.Time) []Group {
	ordered := make([]staging.Row, len(rows))
	copy(ordered, rows)
	sortRows(ordered)

	var groups []Group
	index := make(map[string]int)
	for _, row := range ordered {
		docNo := strings.TrimSpace(row.DocNo)
		i, ok := index[docNo]
		if !ok {
			i = len(groups)
			index[docNo] = i
			groups = append(groups, Group{DocNo: docNo})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	for i := range groups {
		materialize(&groups[i], today)
	}
	return groups
}

func materialize(g *Group, today time.Time) {
	var earliest time.Time
	found := false
	for _, row := range g.Rows {
		g.TotalAmount += row.Amount
		if g.Description == "" {
			g.Description = strings.TrimSpace(row.Description)
		}
		if d, ok := parseDate(row.Date); ok && (!found || d.Before(earliest)) {
			earliest = d
			found = true
		}
	}
	if !found {
		earliest = today
	}
	g.Date = earliest.Format(ledger.DateLayout)
	if g.Description == "" {
		g.Description = "Voucher " + g.DocNo
	}
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func sortRows(rows []staging.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RowIndex != rows[j].RowIndex {
			return rows[i].RowIndex < rows[j].RowIndex
		}
		return rows[i].ID < rows[j].ID
	})
}
