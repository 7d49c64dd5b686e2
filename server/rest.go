package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// tableCache loads each table at most once per request
type tableCache struct {
	ctx   context.Context
	store Store
	rows  map[string][]Row
}

func (tc *tableCache) get(table string) ([]Row, error) {
	if rows, ok := tc.rows[table]; ok {
		return rows, nil
	}
	rows, err := tc.store.List(tc.ctx, table)
	if err != nil {
		return nil, err
	}
	tc.rows[table] = rows
	return rows, nil
}

func (s *Server) lookupTable(c echo.Context) (string, tableSpec, error) {
	table := c.Param("table")
	spec, ok := schema[table]
	if !ok {
		return "", tableSpec{}, c.JSON(http.StatusNotFound,
			pgError("42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table)))
	}
	return table, spec, nil
}

func wantsRepresentation(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get("Prefer"), "return=representation")
}

func internalError(c echo.Context, err error) error {
	c.Logger().Error("store error:", err)
	return c.JSON(http.StatusInternalServerError, pgError("XX000", "internal error"))
}

// handleSelect serves GET /rest/v1/:table
func (s *Server) handleSelect(c echo.Context) error {
	table, spec, err := s.lookupTable(c)
	if table == "" {
		return err
	}

	items, err := parseSelect(c.QueryParam("select"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, pgError("PGRST100", err.Error()))
	}
	filters, orders, err := parseQuery(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, pgError("PGRST100", err.Error()))
	}

	caller := callerID(c)
	tc := &tableCache{ctx: c.Request().Context(), store: s.store, rows: map[string][]Row{}}
	rows, err := tc.get(table)
	if err != nil {
		return internalError(c, err)
	}

	matched := make([]Row, 0, len(rows))
	for _, r := range rows {
		if spec.visible(r, caller) && matchAll(r, filters) {
			matched = append(matched, r)
		}
	}
	sortRows(matched, orders)

	out := make([]Row, 0, len(matched))
	for _, r := range matched {
		projected, err := s.project(tc, table, r, items, caller)
		if err != nil {
			var rel *relationError
			if errors.As(err, &rel) {
				return c.JSON(http.StatusBadRequest, pgError("PGRST200", rel.Error()))
			}
			return internalError(c, err)
		}
		out = append(out, projected)
	}

	return c.JSON(http.StatusOK, out)
}

type relationError struct {
	from, to string
}

func (e *relationError) Error() string {
	return fmt.Sprintf("Could not find a relationship between '%s' and '%s' in the schema cache", e.from, e.to)
}

// project applies a select list to one row, embedding related rows
func (s *Server) project(tc *tableCache, table string, row Row, items []selectItem, caller string) (Row, error) {
	out := Row{}
	for _, item := range items {
		if !item.embed {
			if item.name == "*" {
				for k, v := range row {
					out[k] = v
				}
				continue
			}
			if v, ok := row[item.name]; ok {
				out[item.name] = v
			}
			continue
		}

		rel, ok := relations[table][item.name]
		if !ok {
			return nil, &relationError{from: table, to: item.name}
		}
		related, err := tc.get(rel.table)
		if err != nil {
			return nil, err
		}
		relSpec := schema[rel.table]
		key := valueString(row[rel.local])

		var children []Row
		for _, r := range related {
			if key != "" && valueString(r[rel.foreign]) == key && relSpec.visible(r, caller) {
				child, err := s.project(tc, rel.table, r, item.children, caller)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
		}

		if rel.many {
			if children == nil {
				children = []Row{}
			}
			out[item.name] = children
		} else if len(children) > 0 {
			out[item.name] = children[0]
		} else {
			out[item.name] = nil
		}
	}
	return out, nil
}

// decodeRows reads a JSON object or array of objects
func decodeRows(c echo.Context) ([]Row, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case map[string]any:
		return []Row{Row(v)}, nil
	case []any:
		rows := make([]Row, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("array items must be objects")
			}
			rows = append(rows, Row(m))
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("body must be an object or an array of objects")
	}
}

func rlsViolation(c echo.Context, table, caller string) error {
	status := http.StatusForbidden
	if caller == "" {
		status = http.StatusUnauthorized
	}
	return c.JSON(status, pgError("42501",
		fmt.Sprintf("new row violates row-level security policy for table \"%s\"", table)))
}

// handleInsert serves POST /rest/v1/:table
func (s *Server) handleInsert(c echo.Context) error {
	table, spec, err := s.lookupTable(c)
	if table == "" {
		return err
	}

	rows, err := decodeRows(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, pgError("PGRST102", err.Error()))
	}

	caller := callerID(c)
	for _, r := range rows {
		if r.ID() == "" {
			r["id"] = uuid.NewString()
		}
		if _, ok := r["created_at"]; !ok {
			r["created_at"] = s.now()
		}
		if !spec.writable(r, caller) {
			return rlsViolation(c, table, caller)
		}
	}

	ctx := c.Request().Context()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.store.List(ctx, table)
	if err != nil {
		return internalError(c, err)
	}
	for _, r := range rows {
		if constraint, detail, dup := spec.conflict(table, r, existing); dup {
			body := pgError("23505", fmt.Sprintf("duplicate key value violates unique constraint \"%s\"", constraint))
			body["details"] = detail
			return c.JSON(http.StatusConflict, body)
		}
		existing = append(existing, r)
	}

	for _, r := range rows {
		if err := s.store.Put(ctx, table, r); err != nil {
			return internalError(c, err)
		}
	}

	if wantsRepresentation(c) {
		return c.JSON(http.StatusCreated, rows)
	}
	return c.NoContent(http.StatusCreated)
}

// targetRows returns the rows matching the filters that the caller may write
func (s *Server) targetRows(c echo.Context, table string, spec tableSpec) ([]Row, error) {
	filters, _, err := parseQuery(c.QueryParams())
	if err != nil {
		return nil, err
	}
	rows, err := s.store.List(c.Request().Context(), table)
	if err != nil {
		return nil, err
	}

	caller := callerID(c)
	var out []Row
	for _, r := range rows {
		if spec.visible(r, caller) && spec.writable(r, caller) && matchAll(r, filters) {
			out = append(out, r)
		}
	}
	return out, nil
}

// handleUpdate serves PATCH /rest/v1/:table. Rows the caller cannot write are
// silently skipped, as row-level security does.
func (s *Server) handleUpdate(c echo.Context) error {
	table, spec, err := s.lookupTable(c)
	if table == "" {
		return err
	}

	patches, err := decodeRows(c)
	if err != nil || len(patches) != 1 {
		return c.JSON(http.StatusBadRequest, pgError("PGRST102", "body must be a single object"))
	}
	patch := patches[0]
	delete(patch, "id")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	targets, err := s.targetRows(c, table, spec)
	if err != nil {
		return c.JSON(http.StatusBadRequest, pgError("PGRST100", err.Error()))
	}

	caller := callerID(c)
	updated := make([]Row, 0, len(targets))
	for _, r := range targets {
		next := r.Clone()
		for k, v := range patch {
			next[k] = v
		}
		if !spec.writable(next, caller) {
			return rlsViolation(c, table, caller)
		}
		updated = append(updated, next)
	}

	for _, r := range updated {
		if err := s.store.Put(c.Request().Context(), table, r); err != nil {
			return internalError(c, err)
		}
	}

	if wantsRepresentation(c) {
		return c.JSON(http.StatusOK, updated)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleDelete serves DELETE /rest/v1/:table
func (s *Server) handleDelete(c echo.Context) error {
	table, spec, err := s.lookupTable(c)
	if table == "" {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	targets, err := s.targetRows(c, table, spec)
	if err != nil {
		return c.JSON(http.StatusBadRequest, pgError("PGRST100", err.Error()))
	}

	for _, r := range targets {
		if err := s.store.Delete(c.Request().Context(), table, r.ID()); err != nil {
			return internalError(c, err)
		}
	}

	if wantsRepresentation(c) {
		if targets == nil {
			targets = []Row{}
		}
		return c.JSON(http.StatusOK, targets)
	}
	return c.NoContent(http.StatusNoContent)
}
