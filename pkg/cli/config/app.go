package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/gyges/pkg/domain/model/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// AppConfig is the TOML application configuration: the action type table
// and per-group settings.
type AppConfig struct {
	path string

	ActionTypes []ActionTypeEntry `toml:"action_type"`
	Groups      []Group           `toml:"group"`
}

// ActionTypeEntry represents an action type configuration
type ActionTypeEntry struct {
	Key               string `toml:"key"`
	Capacity          int    `toml:"capacity"`
	HasRoleA          bool   `toml:"has_role_a"`
	HasRoleB          bool   `toml:"has_role_b"`
	RequiresGatedRole bool   `toml:"requires_gated_role"`
	DisplayName       string `toml:"display_name"`
}

// Validate checks if the ActionTypeEntry is valid
func (e *ActionTypeEntry) Validate() error {
	if e.Key == "" {
		return goerr.New("action type key is required")
	}
	if e.Capacity <= 0 {
		return goerr.New("action type capacity must be positive",
			goerr.V("key", e.Key), goerr.V("capacity", e.Capacity))
	}
	if e.HasRoleB && !e.HasRoleA {
		return goerr.New("role B requires role A", goerr.V("key", e.Key))
	}
	return nil
}

// Group represents a community group configuration
type Group struct {
	ID                string   `toml:"id"`
	ActionChannel     string   `toml:"action_channel"`
	EscalationChannel string   `toml:"escalation_channel"`
	ReportChannel     string   `toml:"report_channel"`
	GatedRoles        []string `toml:"gated_roles"`
	AdminRoles        []string `toml:"admin_roles"`
	WarningHours      float64  `toml:"warning_hours"`
	InactivityHours   float64  `toml:"inactivity_hours"`
}

// Validate checks if the Group is valid
func (g *Group) Validate() error {
	if g.ID == "" {
		return goerr.New("group ID is required")
	}
	if g.WarningHours < 0 || g.InactivityHours < 0 {
		return goerr.New("inactivity thresholds must not be negative", goerr.V("id", g.ID))
	}
	if g.WarningHours > 0 && g.InactivityHours > 0 && g.WarningHours >= g.InactivityHours {
		return goerr.New("warning threshold must be below the inactivity threshold",
			goerr.V("id", g.ID),
			goerr.V("warning_hours", g.WarningHours),
			goerr.V("inactivity_hours", g.InactivityHours))
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	typeKeys := make(map[string]bool)
	for _, e := range a.ActionTypes {
		if err := e.Validate(); err != nil {
			return goerr.Wrap(err, "invalid action type")
		}
		key := domainConfig.CanonicalTypeKey(e.Key)
		if typeKeys[key] {
			return goerr.New("duplicate action type key", goerr.V("key", key))
		}
		typeKeys[key] = true
	}

	groupIDs := make(map[string]bool)
	for _, g := range a.Groups {
		if err := g.Validate(); err != nil {
			return goerr.Wrap(err, "invalid group")
		}
		if groupIDs[g.ID] {
			return goerr.New("duplicate group ID", goerr.V("id", g.ID))
		}
		groupIDs[g.ID] = true
	}

	return nil
}

// Flags returns CLI flags for application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("GYGES_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads and validates the configuration file when one was
// given, then converts it to the domain types. Without a file the
// built-in type table and empty group settings are used.
func (a *AppConfig) Configure() (*domainConfig.ActionTypeTable, map[types.GroupID]*domainConfig.GroupSettings, error) {
	if a.path != "" {
		loaded, err := LoadAppConfiguration(a.path)
		if err != nil {
			return nil, nil, err
		}
		a.ActionTypes = loaded.ActionTypes
		a.Groups = loaded.Groups
	}

	return a.TypeTable(), a.GroupSettings(), nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V("path", path))
	}

	return &config, nil
}

// TypeTable converts the configured action types to the domain table.
// Without configured entries the built-in table is used.
func (a *AppConfig) TypeTable() *domainConfig.ActionTypeTable {
	if len(a.ActionTypes) == 0 {
		return domainConfig.DefaultActionTypeTable()
	}

	entries := make([]domainConfig.ActionType, len(a.ActionTypes))
	for i, e := range a.ActionTypes {
		entries[i] = domainConfig.ActionType{
			Key:               domainConfig.CanonicalTypeKey(e.Key),
			Capacity:          e.Capacity,
			HasRoleA:          e.HasRoleA,
			HasRoleB:          e.HasRoleB,
			RequiresGatedRole: e.RequiresGatedRole,
			DisplayName:       e.DisplayName,
		}
	}

	return domainConfig.NewActionTypeTable(entries, domainConfig.ActionType{
		Key:      domainConfig.DefaultTypeKey,
		Capacity: 30,
		HasRoleA: true,
		HasRoleB: true,
	})
}

// GroupSettings converts the configured groups to domain settings keyed
// by group ID
func (a *AppConfig) GroupSettings() map[types.GroupID]*domainConfig.GroupSettings {
	result := make(map[types.GroupID]*domainConfig.GroupSettings, len(a.Groups))
	for _, g := range a.Groups {
		gs := domainConfig.NewGroupSettings(types.GroupID(g.ID))
		gs.ActionChannel = types.ChannelID(g.ActionChannel)
		gs.EscalationChannel = types.ChannelID(g.EscalationChannel)
		gs.ReportChannel = types.ChannelID(g.ReportChannel)
		for _, r := range g.GatedRoles {
			gs.GatedRoles = append(gs.GatedRoles, types.RoleID(r))
		}
		for _, r := range g.AdminRoles {
			gs.AdminRoles = append(gs.AdminRoles, types.RoleID(r))
		}
		if g.WarningHours > 0 {
			gs.WarningHours = g.WarningHours
		}
		if g.InactivityHours > 0 {
			gs.InactivityHours = g.InactivityHours
		}
		result[types.GroupID(g.ID)] = gs
	}
	return result
}
