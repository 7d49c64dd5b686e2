package server

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// selectItem is one entry of a select list: a column, "*", or an embedded relation
type selectItem struct {
	name     string
	children []selectItem
	embed    bool
}

// parseSelect parses strings like "*,profiles(nombre),secciones(id,tareas(*))"
func parseSelect(s string) ([]selectItem, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return []selectItem{{name: "*"}}, nil
	}
	items, rest, err := parseSelectList(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("unexpected %q in select", rest)
	}
	return items, nil
}

func parseSelectList(s string) ([]selectItem, string, error) {
	var items []selectItem
	for {
		var name string
		if i := strings.IndexAny(s, ",()"); i < 0 {
			name, s = s, ""
		} else {
			name, s = s[:i], s[i:]
		}
		if name == "" {
			return nil, s, fmt.Errorf("empty column in select")
		}

		item := selectItem{name: name}
		if strings.HasPrefix(s, "(") {
			children, rest, err := parseSelectList(s[1:])
			if err != nil {
				return nil, rest, err
			}
			if !strings.HasPrefix(rest, ")") {
				return nil, rest, fmt.Errorf("unbalanced parentheses in select")
			}
			s = rest[1:]
			// "rel!inner" style hints only pick the join; the relation name comes first
			if i := strings.IndexByte(item.name, '!'); i >= 0 {
				item.name = item.name[:i]
			}
			item.children, item.embed = children, true
		}
		items = append(items, item)

		if !strings.HasPrefix(s, ",") {
			return items, s, nil
		}
		s = s[1:]
	}
}

// filter is a column condition from the query string
type filter struct {
	column string
	op     string
	value  string
}

func (f filter) match(row Row) bool {
	v, present := row[f.column]
	switch f.op {
	case "eq":
		return present && v != nil && valueString(v) == f.value
	case "neq":
		return !present || v == nil || valueString(v) != f.value
	case "is":
		switch f.value {
		case "null":
			return !present || v == nil
		case "true", "false":
			b, ok := v.(bool)
			return ok && strconv.FormatBool(b) == f.value
		}
	}
	return false
}

type ordering struct {
	column string
	desc   bool
}

var reservedParams = map[string]bool{"select": true, "order": true, "limit": true, "offset": true, "apikey": true, "columns": true}

// parseQuery splits query parameters into filters and orderings
func parseQuery(q url.Values) ([]filter, []ordering, error) {
	var filters []filter
	for col, vals := range q {
		if reservedParams[col] {
			continue
		}
		for _, v := range vals {
			op, value, ok := strings.Cut(v, ".")
			if !ok || (op != "eq" && op != "neq" && op != "is") {
				return nil, nil, fmt.Errorf("unsupported filter %s=%s", col, v)
			}
			filters = append(filters, filter{column: col, op: op, value: value})
		}
	}

	var orders []ordering
	if o := q.Get("order"); o != "" {
		for _, part := range strings.Split(o, ",") {
			fields := strings.Split(part, ".")
			ord := ordering{column: fields[0]}
			for _, mod := range fields[1:] {
				switch mod {
				case "desc":
					ord.desc = true
				case "asc", "nullsfirst", "nullslast":
				default:
					return nil, nil, fmt.Errorf("unsupported order modifier %q", mod)
				}
			}
			orders = append(orders, ord)
		}
	}
	return filters, orders, nil
}

func matchAll(row Row, filters []filter) bool {
	for _, f := range filters {
		if !f.match(row) {
			return false
		}
	}
	return true
}

func sortRows(rows []Row, orders []ordering) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(rows[i][o.column], rows[j][o.column])
			if c == 0 {
				continue
			}
			if o.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders numbers numerically, everything else by text; nulls last
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	an, aok := a.(json.Number)
	bn, bok := b.(json.Number)
	if aok && bok {
		af, _ := an.Float64()
		bf, _ := bn.Float64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(valueString(a), valueString(b))
}

// valueString renders a column value the way it appears in a filter
func valueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}
