package server

import (
	"fmt"
	"strings"
)

// tableSpec describes the row-level policy of one table
type tableSpec struct {
	// owner is the column naming the owning user; empty means any signed-in user may write
	owner string
	// private rows are only visible to their owner
	private bool
	// unique lists column sets that must be unique besides id
	unique [][]string
}

var schema = map[string]tableSpec{
	"profiles":           {owner: "id"},
	"cursos":             {owner: "usuario_id"},
	"secciones":          {},
	"tareas":             {},
	"recursos":           {},
	"inscripciones":      {owner: "usuario_id", private: true, unique: [][]string{{"usuario_id", "curso_id"}}},
	"favoritos":          {owner: "usuario_id", private: true, unique: [][]string{{"usuario_id", "curso_id"}}},
	"tarjetas_simuladas": {owner: "usuario_id", private: true},
}

// relation is a foreign key usable for embedding
type relation struct {
	table   string
	local   string
	foreign string
	many    bool
}

var relations = map[string]map[string]relation{
	"cursos": {
		"profiles":  {table: "profiles", local: "usuario_id", foreign: "id"},
		"secciones": {table: "secciones", local: "id", foreign: "curso_id", many: true},
	},
	"secciones": {
		"cursos": {table: "cursos", local: "curso_id", foreign: "id"},
		"tareas": {table: "tareas", local: "id", foreign: "seccion_id", many: true},
	},
	"tareas": {
		"secciones": {table: "secciones", local: "seccion_id", foreign: "id"},
		"recursos":  {table: "recursos", local: "id", foreign: "tarea_id", many: true},
	},
	"inscripciones": {
		"cursos":   {table: "cursos", local: "curso_id", foreign: "id"},
		"profiles": {table: "profiles", local: "usuario_id", foreign: "id"},
	},
	"favoritos": {
		"cursos": {table: "cursos", local: "curso_id", foreign: "id"},
	},
	"tarjetas_simuladas": {
		"profiles": {table: "profiles", local: "usuario_id", foreign: "id"},
	},
}

func (t tableSpec) visible(row Row, caller string) bool {
	if !t.private {
		return true
	}
	return caller != "" && valueString(row[t.owner]) == caller
}

func (t tableSpec) writable(row Row, caller string) bool {
	if caller == "" {
		return false
	}
	return t.owner == "" || valueString(row[t.owner]) == caller
}

// conflict returns the violated unique key of row against existing rows
func (t tableSpec) conflict(table string, row Row, existing []Row) (string, string, bool) {
	for _, other := range existing {
		if other.ID() == row.ID() {
			return table + "_pkey", fmt.Sprintf("Key (id)=(%s) already exists.", row.ID()), true
		}
	}
	for _, cols := range t.unique {
		for _, other := range existing {
			same := true
			for _, col := range cols {
				if valueString(other[col]) != valueString(row[col]) {
					same = false
					break
				}
			}
			if same {
				vals := make([]string, len(cols))
				for i, col := range cols {
					vals[i] = valueString(row[col])
				}
				return table + "_" + strings.Join(cols, "_") + "_key",
					fmt.Sprintf("Key (%s)=(%s) already exists.", strings.Join(cols, ", "), strings.Join(vals, ", ")),
					true
			}
		}
	}
	return "", "", false
}

func pgError(code, msg string) map[string]any {
	return map[string]any{"code": code, "details": nil, "hint": nil, "message": msg}
}
