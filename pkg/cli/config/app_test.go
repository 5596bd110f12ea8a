package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gyges/pkg/cli/config"
	domainConfig "github.com/secmon-lab/gyges/pkg/domain/model/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
[[action_type]]
key = "major incident"
capacity = 10
has_role_a = true
has_role_b = true
requires_gated_role = true
display_name = "Major Incident"

[[action_type]]
key = "PATROL"
capacity = 8

[[group]]
id = "G1"
action_channel = "C1"
escalation_channel = "C2"
gated_roles = ["VETERAN"]
admin_roles = ["STAFF"]
warning_hours = 10.0
inactivity_hours = 12.0

[[group]]
id = "G2"
`)

		cfg, err := config.LoadAppConfiguration(path)
		gt.NoError(t, err).Required()
		gt.Array(t, cfg.ActionTypes).Length(2)
		gt.Array(t, cfg.Groups).Length(2)

		table := cfg.TypeTable()
		entry := table.Lookup("major incident")
		gt.Value(t, entry.Key).Equal("MAJOR_INCIDENT")
		gt.Number(t, entry.Capacity).Equal(10)
		gt.B(t, entry.RequiresGatedRole).True()

		groups := cfg.GroupSettings()
		gt.Number(t, len(groups)).Equal(2)

		g1 := groups[types.GroupID("G1")]
		gt.Value(t, g1.ActionChannel).Equal(types.ChannelID("C1"))
		gt.Array(t, g1.GatedRoles).Equal([]types.RoleID{"VETERAN"})
		gt.Number(t, g1.WarningHours).Equal(10.0)
		gt.Number(t, g1.InactivityHours).Equal(12.0)

		// Unset thresholds fall back to defaults
		g2 := groups[types.GroupID("G2")]
		gt.Number(t, g2.WarningHours).Equal(float64(domainConfig.DefaultWarningHours))
		gt.Number(t, g2.InactivityHours).Equal(float64(domainConfig.DefaultInactivityHours))
	})

	t.Run("duplicate type keys rejected even when spelled differently", func(t *testing.T) {
		path := writeConfig(t, `
[[action_type]]
key = "major incident"
capacity = 10

[[action_type]]
key = "MAJOR_INCIDENT"
capacity = 5
`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})

	t.Run("non-positive capacity rejected", func(t *testing.T) {
		path := writeConfig(t, `
[[action_type]]
key = "BROKEN"
capacity = 0
`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})

	t.Run("role B without role A rejected", func(t *testing.T) {
		path := writeConfig(t, `
[[action_type]]
key = "BROKEN"
capacity = 5
has_role_b = true
`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})

	t.Run("duplicate group IDs rejected", func(t *testing.T) {
		path := writeConfig(t, `
[[group]]
id = "G1"

[[group]]
id = "G1"
`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})

	t.Run("warning threshold must be below inactivity threshold", func(t *testing.T) {
		path := writeConfig(t, `
[[group]]
id = "G1"
warning_hours = 24.0
inactivity_hours = 20.0
`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadAppConfiguration("/no/such/file.toml")
		gt.Error(t, err)
	})
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg config.AppConfig

	table, groups, err := cfg.Configure()
	gt.NoError(t, err).Required()
	gt.Number(t, len(groups)).Equal(0)

	// Built-in table applies without a config file
	entry := table.Lookup("PATROL")
	gt.Value(t, entry.Key).Equal("PATROL")
	gt.Number(t, entry.Capacity).Equal(8)
}
