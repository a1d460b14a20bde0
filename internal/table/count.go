package table

import (
	"context"
	"fmt"
	"sort"

	"github.com/j-veylop/exon-report/internal/models"
)

// TotalLabel is the key of synthetic total rows and columns.
const TotalLabel = "Итого"

// Count is the number of rows attributed to one grouping key.
type Count struct {
	Key string
	N   int
}

// Grouped is the result of grouping a row-set by a key field.
//
// Total is the number of rows before grouping. When the key field holds
// several values per row, each value is counted against its own key, so the
// sum of Counts can exceed Total.
type Grouped struct {
	Counts []Count
	Total  int
}

// Sum adds up the per-key counts.
func (g Grouped) Sum() int {
	sum := 0
	for _, c := range g.Counts {
		sum += c.N
	}
	return sum
}

// AsMap returns the counts keyed by group key.
func (g Grouped) AsMap() map[string]int {
	m := make(map[string]int, len(g.Counts))
	for _, c := range g.Counts {
		m[c.Key] += c.N
	}
	return m
}

// UserLookup resolves a batch of user ids in a single call.
type UserLookup interface {
	UsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// CountByGroupKey counts rows per distinct value of keyField.
func CountByGroupKey(rows Rows, keyField string) Grouped {
	counts := make(map[string]int)
	for _, row := range rows {
		v, ok := row.Lookup(keyField)
		if !ok {
			continue
		}
		for _, key := range keyValues(v) {
			counts[key]++
		}
	}
	return Grouped{Total: len(rows), Counts: sortedCounts(counts)}
}

// CountByResolvedUserOrganization counts rows per user, resolves all users in
// one lookup and sums the per-user counts onto each user's current organization.
// Any lookup failure fails the whole call.
func CountByResolvedUserOrganization(ctx context.Context, rows Rows, userIDField string, lookup UserLookup) (Grouped, error) {
	var ids []string
	perUser := make(map[string]int)
	for _, row := range rows {
		v, ok := row.Lookup(userIDField)
		if !ok {
			continue
		}
		for _, id := range keyValues(v) {
			if _, seen := perUser[id]; !seen {
				ids = append(ids, id)
			}
			perUser[id]++
		}
	}

	if len(ids) == 0 {
		return Grouped{Total: len(rows), Counts: []Count{}}, nil
	}

	users, err := lookup.UsersByIDs(ctx, ids)
	if err != nil {
		return Grouped{}, &LookupError{Reason: fmt.Sprintf("resolving %d users", len(ids)), Err: err}
	}

	resolved, err := pairUsers(ids, users)
	if err != nil {
		return Grouped{}, err
	}

	counts := make(map[string]int)
	for _, id := range ids {
		orgID, ok := resolved[id].CurrentOrganisationID()
		if !ok {
			return Grouped{}, &LookupError{Reason: fmt.Sprintf("user %s has no %s", id, models.CurrentOrganisationAttr)}
		}
		counts[orgID] += perUser[id]
	}

	return Grouped{Total: len(rows), Counts: sortedCounts(counts)}, nil
}

// pairUsers matches lookup results to requested ids, by id when the service
// returns them and positionally otherwise.
func pairUsers(ids []string, users []models.User) (map[string]*models.User, error) {
	byID := make(map[string]*models.User, len(users))
	positional := false
	for i := range users {
		if users[i].ID == "" {
			positional = true
			break
		}
		byID[users[i].ID] = &users[i]
	}

	if positional {
		if len(users) != len(ids) {
			return nil, &LookupError{Reason: fmt.Sprintf("requested %d users, got %d", len(ids), len(users))}
		}
		byID = make(map[string]*models.User, len(users))
		for i, id := range ids {
			byID[id] = &users[i]
		}
		return byID, nil
	}

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &LookupError{Reason: fmt.Sprintf("user %s missing from lookup result", id)}
		}
	}
	return byID, nil
}

// TranslateKeysToNames replaces every key with its display name. Keys that
// translate to the same name are merged. A key missing from names is an error.
func TranslateKeysToNames(counts []Count, names map[string]string) ([]Count, error) {
	merged := make(map[string]int, len(counts))
	for _, c := range counts {
		name, ok := names[c.Key]
		if !ok {
			return nil, &KeyError{Key: c.Key}
		}
		merged[name] += c.N
	}
	return sortedCounts(merged), nil
}

// MapKeys rewrites every key with fn, merging keys that collide.
func MapKeys(counts []Count, fn func(string) string) []Count {
	merged := make(map[string]int, len(counts))
	for _, c := range counts {
		merged[fn(c.Key)] += c.N
	}
	return sortedCounts(merged)
}

// AppendTotalRow returns a copy of counts followed by a TotalLabel row carrying
// total. The total is taken as given and not recomputed from counts.
func AppendTotalRow(counts []Count, total int) []Count {
	out := make([]Count, 0, len(counts)+1)
	out = append(out, counts...)
	return append(out, Count{Key: TotalLabel, N: total})
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for k, n := range m {
		counts = append(counts, Count{Key: k, N: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Key < counts[j].Key })
	return counts
}
