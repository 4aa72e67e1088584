package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/testutil"
)

const linksScenario = `name: wg_links
description: A Wild Growth cast links to both applications
session: ../sessions/wg.yaml
assertions:
  - type: related_count
    relation: appliedHot
    kind: cast
    ability: 48438
    count: 2
  - type: snapshot_equals
    path: abilityTracker.48438.hits
    expect: 2
`

const failingScenario = `name: wg_wrong
session: ../sessions/wg.yaml
assertions:
  - type: fabricated_count
    kind: cast
    count: 3
`

// scenarioDir lays out scenarios/ with the given files next to a
// sessions/ directory holding the WildGrowth session, and returns the
// scenarios directory.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	root := t.TempDir()
	sessions := filepath.Join(root, "sessions")
	require.NoError(t, os.MkdirAll(sessions, 0o755))
	writeSession(t, sessions, testutil.WildGrowthSession("wg"))

	dir := filepath.Join(root, "scenarios")
	for name, content := range scenarios {
		writeFile(t, filepath.Join(dir, name), content)
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Zero(t, result.Total)
}

func TestTestCommandPassing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"wg_links.yaml": linksScenario})

	out, err := execute(t, "", "test", dir)
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "✓ wg_links")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"wg_links.yaml": linksScenario,
		"wg_wrong.yaml": failingScenario,
	})

	out, err := execute(t, "", "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Total)

	for _, s := range result.Scenarios {
		if s.Name == "wg_wrong" {
			assert.False(t, s.Pass)
			require.NotEmpty(t, s.Errors)
			assert.Contains(t, s.Errors[0], "fabricated_count")
		}
	}
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\nsession: ../sessions/wg.yaml\nassertion: []\n"})

	out, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenFiles(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"wg_links.yaml": linksScenario})
	golden := filepath.Join(dir, "golden", "wg_links.golden")

	// --update writes the golden file
	out, err := execute(t, "", "test", "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ wg_links (golden updated)")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"wg_links"`)
	assert.Contains(t, string(data), `"run_id":"test-run-default"`)

	// A matching golden file passes
	out, err = execute(t, "", "--format", "json", "test", dir)
	require.NoError(t, err)
	var result TestResult
	decode(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.True(t, result.Scenarios[0].Golden)
	assert.True(t, result.Scenarios[0].Pass)

	// A stale golden file fails
	require.NoError(t, os.WriteFile(golden, []byte(`{"trace":[]}`), 0o644))
	out, err = execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"wg_links.yaml": linksScenario,
		"wg_wrong.yaml": failingScenario,
	})

	out, err := execute(t, "", "test", "--filter", "*_links", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "wg_wrong")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "")
	writeFile(t, filepath.Join(dir, "nested", "b.yml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "golden", "a.yaml"), "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested", "b.yml"),
	}, files)

	files, err = findScenarioFiles(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nested", "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "wg.golden"), goldenFilePath(filepath.Join("scenarios", "wg.yaml")))
}
