package config

import "strings"

// ActionType holds the default configuration applied to actions created
// with a given type key.
type ActionType struct {
	Key               string
	Capacity          int
	HasRoleA          bool
	HasRoleB          bool
	RequiresGatedRole bool
	DisplayName       string
}

// ActionTypeTable maps canonical type keys to their configuration.
// Lookup is exact-match on the canonical key with an explicit default
// fallback; no fuzzy matching, so results are deterministic.
type ActionTypeTable struct {
	entries     map[string]ActionType
	defaultType ActionType
}

// DefaultTypeKey is the key reported for names that match no entry
const DefaultTypeKey = "DEFAULT"

// CanonicalTypeKey normalizes a free-text action name into a lookup key
func CanonicalTypeKey(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
}

// NewActionTypeTable builds a lookup table from entries. The fallback is
// used for names matching no entry; its DisplayName is overridden by the
// looked-up name when empty.
func NewActionTypeTable(entries []ActionType, fallback ActionType) *ActionTypeTable {
	table := &ActionTypeTable{
		entries:     make(map[string]ActionType, len(entries)),
		defaultType: fallback,
	}
	for _, e := range entries {
		table.entries[CanonicalTypeKey(e.Key)] = e
	}
	return table
}

// DefaultActionTypeTable returns the built-in action type table used when
// no configuration file provides one.
func DefaultActionTypeTable() *ActionTypeTable {
	return NewActionTypeTable([]ActionType{
		{
			Key:               "MAJOR_INCIDENT",
			Capacity:          10,
			HasRoleA:          true,
			HasRoleB:          true,
			RequiresGatedRole: true,
			DisplayName:       "Major Incident",
		},
		{
			Key:         "TRIAGE",
			Capacity:    6,
			HasRoleA:    true,
			DisplayName: "Triage",
		},
		{
			Key:               "SPECIAL_OPERATION",
			Capacity:          15,
			HasRoleA:          true,
			HasRoleB:          true,
			RequiresGatedRole: true,
			DisplayName:       "Special Operation",
		},
		{
			Key:         "PATROL",
			Capacity:    8,
			DisplayName: "Patrol",
		},
	}, ActionType{
		Key:      DefaultTypeKey,
		Capacity: 30,
		HasRoleA: true,
		HasRoleB: true,
	})
}

// Lookup resolves an action name to its type configuration. Unknown names
// get the default configuration with the given name as display name and
// DefaultTypeKey as key.
func (t *ActionTypeTable) Lookup(name string) ActionType {
	key := CanonicalTypeKey(name)
	if entry, ok := t.entries[key]; ok {
		return entry
	}
	fallback := t.defaultType
	fallback.Key = DefaultTypeKey
	if fallback.DisplayName == "" {
		fallback.DisplayName = name
	}
	return fallback
}

// Keys returns all canonical keys in the table
func (t *ActionTypeTable) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	return keys
}
