// End-to-end tests of the coffer CLI: init, record lifecycle, incident
// numbering, and backup round trips between two independent stores.
package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record map[string]any

func TestInit_CreatesDatabaseAndConfig(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRun("", "init")
	assert.Contains(t, result.Stdout, "coffer initialized")
	assert.FileExists(t, filepath.Join(env.DataDir, "coffer.db"))
	assert.FileExists(t, filepath.Join(env.Config, "config.yaml"))

	env.MustRun("", "init")
}

func TestVersion(t *testing.T) {
	env := NewTestEnv(t)
	result := env.MustRun("", "version")
	assert.True(t, strings.HasPrefix(result.Stdout, "coffer v"))
}

func TestRecordLifecycle(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("", "init")

	env.MustRun(`{"id":"D1","created_at":1000,"objet":"Demande d'explication","type_objet":"Note"}`, "save", "documents")
	env.MustRun(`{"id":"D2","created_at":2000,"objet":"Ordre de mission","type_objet":"Note"}`, "save", "courriers")

	listed := ParseJSON[[]record](t, env.MustRun("", "--json", "list", "documents").Stdout)
	require.Len(t, listed, 2)
	assert.Equal(t, "D2", listed[0]["id"])

	// Overwrite by id.
	env.MustRun(`{"id":"D1","created_at":1000,"objet":"Demande d'explication (v2)"}`, "save", "documents")
	got := ParseJSON[record](t, env.MustRun("", "get", "documents", "D1").Stdout)
	assert.Equal(t, "Demande d'explication (v2)", got["objet"])
	assert.NotContains(t, got, "type_objet")

	env.MustRun("", "delete", "documents", "D1")
	result := env.Run("", "get", "documents", "D1")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "not found")
}

func TestIncidentNumbering(t *testing.T) {
	env := NewTestEnv(t)

	env.MustRun(`{"id":"SRM-MS/DPH/AI-0125-001","created_at":1}`, "save", "avis")
	env.MustRun(`{"id":"SRM-MS/DPH/AI-0125-002","created_at":2}`, "save", "avis")

	result := env.MustRun("", "next-ref", "--month", "2025-01")
	assert.Equal(t, "SRM-MS/DPH/AI-0125-003", strings.TrimSpace(result.Stdout))

	saved := ParseJSON[record](t, env.MustRun(`{"victime_objet":"Poste HTA"}`, "--json", "save", "incidents").Stdout)
	assert.True(t, strings.HasPrefix(saved["id"].(string), "SRM-MS/DPH/AI-"))
	assert.Equal(t, "À suivre", saved["statut"])
}

func TestBackupRoundTrip(t *testing.T) {
	src := NewTestEnv(t)
	src.MustRun(`{"id":"D1","created_at":1,"objet":"Courrier"}`, "save", "documents")
	src.MustRun(`{"id":"C1","created_at":2,"banque":"BNA","montant":1500}`, "save", "checks")
	src.MustRun(`{"id":"A1","created_at":3,"nature_incident":"Vol"}`, "save", "avis")

	backupFile := filepath.Join(src.TempDir, "backup.json")
	result := src.MustRun("", "export", "--out", backupFile)
	assert.Contains(t, result.Stderr, "exported 3 records")

	dst := NewTestEnv(t)
	dst.MustRun(`{"id":"C9","created_at":9}`, "save", "checks")
	result = dst.MustRun("", "import", backupFile)
	assert.Equal(t, "imported 3 records\n", result.Stdout)

	checks := ParseJSON[[]record](t, dst.MustRun("", "--json", "list", "checks").Stdout)
	require.Len(t, checks, 2)
	assert.Equal(t, "C9", checks[0]["id"])
	assert.Equal(t, "C1", checks[1]["id"])
}

func TestImport_LegacySnapshot(t *testing.T) {
	env := NewTestEnv(t)
	legacy := `{"documents":[],"checks_rejetes":[{"id":"OLD","created_at":5,"banque":"CPA"}]}`
	path := filepath.Join(env.TempDir, "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	env.MustRun("", "import", path)
	got := ParseJSON[record](t, env.MustRun("", "get", "cheques", "OLD").Stdout)
	assert.Equal(t, "CPA", got["banque"])
}

func TestImport_RejectedPayloadChangesNothing(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun(`{"id":"D1","created_at":1}`, "save", "documents")

	for _, payload := range []string{`null`, `12`, `"x"`, `{"checks":"oops"}`} {
		result := env.Run(payload, "import", "-")
		assert.Equal(t, 1, result.ExitCode, payload)
		assert.Contains(t, result.Stderr, "invalid backup format")
	}

	result := env.Run(`{"documents":[{"id":"D2","created_at":2},{"created_at":3}]}`, "import", "-")
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, result.Stderr, "restore failed")

	listed := ParseJSON[[]record](t, env.MustRun("", "--json", "list", "documents").Stdout)
	require.Len(t, listed, 1)
	assert.Equal(t, "D1", listed[0]["id"])
}

func TestScan_WithoutAPIKeyFails(t *testing.T) {
	env := NewTestEnv(t)
	result := env.Run("", "scan", "avis", "--text", "fumée au local technique")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "missing API key")
}

func TestUnknownCategory(t *testing.T) {
	env := NewTestEnv(t)
	result := env.Run("", "list", "factures")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "unknown category")
}
