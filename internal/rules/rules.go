package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed entities.cue
var entitiesSource []byte

// FieldKind is the value type a field accepts.
type FieldKind string

const (
	KindInt    FieldKind = "int"
	KindNumber FieldKind = "number"
	KindString FieldKind = "string"
	KindList   FieldKind = "list"
	KindBool   FieldKind = "bool"
)

// FilterMode controls how a list query compares a field.
type FilterMode string

const (
	// FilterNone means the field is not a declared filter; queries on it are ignored.
	FilterNone FilterMode = ""
	// FilterExact compares with type-aware equality.
	FilterExact FilterMode = "exact"
	// FilterFold compares strings under Unicode case folding.
	FilterFold FilterMode = "fold"
)

// Field declares one client-supplied field of an entity.
type Field struct {
	Name        string          `json:"name"`
	Kind        FieldKind       `json:"kind"`
	Required    bool            `json:"required"`
	Positive    bool            `json:"positive"`
	Mutable     bool            `json:"mutable"`
	Overwrite   bool            `json:"overwrite"`
	Filter      FilterMode      `json:"filter"`
	Aliases     []string        `json:"aliases"`
	Enum        []string        `json:"enum"`
	EnumKey     string          `json:"enumKey"`
	EnumMessage string          `json:"enumMessage"`
	Default     json.RawMessage `json:"default,omitempty"`
}

// HasDefault reports whether the field declares a default (including null).
func (f *Field) HasDefault() bool {
	return len(f.Default) > 0
}

// Status declares an entity's status machine.
type Status struct {
	Field       string              `json:"field"`
	Initial     string              `json:"initial"`
	Values      []string            `json:"values"`
	ValidKey    string              `json:"validKey"`
	Message     string              `json:"message"`
	Manual      bool                `json:"manual"`
	Stamp       string              `json:"stamp"`
	Transitions map[string][]string `json:"transitions"`
}

// Valid reports whether s is an enumerated status.
func (s *Status) Valid(value string) bool {
	return slices.Contains(s.Values, value)
}

// Allows reports whether the status may move from one value to another.
// With no transition table every enumerated status may follow any other,
// including itself.
func (s *Status) Allows(from, to string) bool {
	if !s.Valid(to) {
		return false
	}
	if len(s.Transitions) == 0 {
		return true
	}
	return slices.Contains(s.Transitions[from], to)
}

// Entity is one row of the rule table.
type Entity struct {
	Name            string            `json:"name"`
	Collection      string            `json:"collection"`
	Service         string            `json:"service"`
	Version         string            `json:"version"`
	Port            int               `json:"port"`
	PortEnv         string            `json:"portEnv"`
	RequiredMessage string            `json:"requiredMessage"`
	CreatedStamp    string            `json:"createdStamp"`
	Updatable       bool              `json:"updatable"`
	Deletable       bool              `json:"deletable"`
	Fields          []Field           `json:"fields"`
	Status          *Status           `json:"status,omitempty"`
	Seed            []json.RawMessage `json:"seed"`
}

// Field looks up a declared field by name or alias.
func (e *Entity) Field(name string) (*Field, bool) {
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Name == name || slices.Contains(f.Aliases, name) {
			return f, true
		}
	}
	return nil, false
}

// Filters returns the declared list filters keyed by field name.
// The status field is always an exact filter.
func (e *Entity) Filters() map[string]FilterMode {
	filters := make(map[string]FilterMode)
	for _, f := range e.Fields {
		if f.Filter != FilterNone {
			filters[f.Name] = f.Filter
		}
	}
	if e.Status != nil {
		filters[e.Status.Field] = FilterExact
	}
	return filters
}

// NotFoundMessage is the error text returned for an absent id.
func (e *Entity) NotFoundMessage() string {
	return e.Name + " not found"
}

// Table is the compiled rule table, one entity per collection.
type Table struct {
	Entities []Entity `json:"entities"`
}

// Entity returns the entity for a collection name.
func (t *Table) Entity(collection string) (*Entity, bool) {
	for i := range t.Entities {
		if t.Entities[i].Collection == collection {
			return &t.Entities[i], true
		}
	}
	return nil, false
}

// Collections returns collection names in table order.
func (t *Table) Collections() []string {
	names := make([]string, len(t.Entities))
	for i, e := range t.Entities {
		names[i] = e.Collection
	}
	return names
}

// Default compiles the embedded rule table.
func Default() (*Table, error) {
	return compile(entitiesSource, "entities.cue")
}

// Load compiles a rule table from a CUE file. The file is checked against
// the same schema as the embedded table and replaces it entirely.
func Load(path string) (*Table, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return compile(src, path)
}

func compile(src []byte, filename string) (*Table, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile rules schema: %w", err)
	}

	table := ctx.CompileBytes(src, cue.Filename(filename))
	if err := table.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}

	v := schema.Unify(table)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", filename, err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if err := t.check(); err != nil {
		return nil, fmt.Errorf("check %s: %w", filename, err)
	}
	return &t, nil
}

// check enforces the cross-field constraints CUE does not express.
func (t *Table) check() error {
	if len(t.Entities) == 0 {
		return fmt.Errorf("no entities declared")
	}

	seen := make(map[string]bool)
	ports := make(map[int]string)
	for _, e := range t.Entities {
		if seen[e.Collection] {
			return fmt.Errorf("duplicate collection %q", e.Collection)
		}
		seen[e.Collection] = true

		if other, ok := ports[e.Port]; ok {
			return fmt.Errorf("collections %q and %q share port %d", other, e.Collection, e.Port)
		}
		ports[e.Port] = e.Collection

		names := make(map[string]bool)
		for _, f := range e.Fields {
			for _, n := range append([]string{f.Name}, f.Aliases...) {
				if names[n] {
					return fmt.Errorf("%s: duplicate field name %q", e.Collection, n)
				}
				names[n] = true
			}
			if f.EnumKey != "" && len(f.Enum) == 0 {
				return fmt.Errorf("%s.%s: enumKey without enum values", e.Collection, f.Name)
			}
			if f.Filter == FilterFold && f.Kind != KindString {
				return fmt.Errorf("%s.%s: fold filter requires a string field", e.Collection, f.Name)
			}
		}

		if s := e.Status; s != nil {
			if !s.Valid(s.Initial) {
				return fmt.Errorf("%s: initial status %q is not enumerated", e.Collection, s.Initial)
			}
			for from, tos := range s.Transitions {
				if !s.Valid(from) {
					return fmt.Errorf("%s: transition from unknown status %q", e.Collection, from)
				}
				for _, to := range tos {
					if !s.Valid(to) {
						return fmt.Errorf("%s: transition %s -> %s targets unknown status", e.Collection, from, to)
					}
				}
			}
			if names[s.Field] {
				return fmt.Errorf("%s: status field %q collides with a declared field", e.Collection, s.Field)
			}
		}
	}
	return nil
}
