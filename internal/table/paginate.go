// Package table applies sort, filter, and page-slicing to an
// in-memory row set. It has no network access; callers hand it rows
// they already fetched.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one table row keyed by column name.
type Row map[string]any

// SortKey orders rows by one column.
type SortKey struct {
	Column string
	Desc   bool
}

// Filter restricts rows on one column. Numeric and boolean values
// filter by equality; string values by substring containment against
// the stringified cell. Any other value type passes rows through.
type Filter struct {
	Column string
	Value  any
}

// Request describes one page fetch: at most one effective sort key
// (the last supplied wins; multi-key sorting is not supported), ANDed
// column filters, and zero-based pagination.
type Request struct {
	Sort      []SortKey
	Filters   []Filter
	PageIndex int
	PageSize  int
}

// Page is the shaped result. Total is the post-filter, pre-slice count.
type Page struct {
	List  []Row
	Total int
}

// DefaultPageSize is used when the request leaves PageSize unset.
const DefaultPageSize = 10

// Paginate applies sort, then filters, then the page slice. An empty
// row set short-circuits without invoking sort or filter logic, and an
// out-of-range page yields an empty list rather than an error.
func Paginate(rows []Row, req Request) Page {
	if len(rows) == 0 {
		return Page{List: []Row{}, Total: 0}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageIndex := req.PageIndex
	if pageIndex < 0 {
		pageIndex = 0
	}

	out := make([]Row, len(rows))
	copy(out, rows)

	if len(req.Sort) > 0 {
		key := req.Sort[len(req.Sort)-1]
		multiplier := 1
		if key.Desc {
			multiplier = -1
		}
		sort.SliceStable(out, func(i, j int) bool {
			return compare(out[i][key.Column], out[j][key.Column])*multiplier < 0
		})
	}

	if len(req.Filters) > 0 {
		filtered := out[:0]
		for _, row := range out {
			if matchesAll(row, req.Filters) {
				filtered = append(filtered, row)
			}
		}
		out = filtered
	}

	total := len(out)

	start := pageIndex * pageSize
	if start >= total {
		return Page{List: []Row{}, Total: total}
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{List: out[start:end], Total: total}
}

// matchesAll reports whether the row satisfies every filter.
func matchesAll(row Row, filters []Filter) bool {
	for _, f := range filters {
		value := row[f.Column]
		switch fv := f.Value.(type) {
		case bool:
			b, ok := value.(bool)
			if !ok || b != fv {
				return false
			}
		case string:
			if !strings.Contains(stringify(value), fv) {
				return false
			}
		default:
			if fn, ok := toFloat(f.Value); ok {
				vn, vok := toFloat(value)
				if !vok || vn != fn {
					return false
				}
				continue
			}
			// Unrecognized filter value type fails open.
		}
	}
	return true
}

// compare orders two cell values: numbers numerically, then
// booleans (false < true), times, and everything else by its
// string form. Mixed types group by kind.
func compare(a, b any) int {
	an, aok := toFloat(a)
	bn, bok := toFloat(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	if aok != bok {
		if aok {
			return -1
		}
		return 1
	}

	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		switch {
		case !ab && bb:
			return -1
		case ab && !bb:
			return 1
		}
		return 0
	}

	at, aIsTime := a.(time.Time)
	bt, bIsTime := b.(time.Time)
	if aIsTime && bIsTime {
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	}

	return strings.Compare(stringify(a), stringify(b))
}

// stringify renders a cell the way the substring filter sees it.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// toFloat widens any numeric cell value to float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}
