package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const narrowProfile = `package profile

profile: "narrow"
modules: ["abilityTracker"]
link: appliedHot: {
	reverse: "fromHardcast"
	trigger: {kinds: ["cast"], by: "player", abilities: [48438]}
	referenced: {kinds: ["applybuff"], by: "player", abilities: [48438]}
	forward_ms: 100
}
`

func profileDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "profile.cue"), content)
	return dir
}

func TestValidateValidProfile(t *testing.T) {
	dir := profileDir(t, narrowProfile)

	out, err := execute(t, "", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Profile narrow valid (1 module(s), 1 link(s))")
}

func TestValidateValidProfileJSON(t *testing.T) {
	dir := profileDir(t, narrowProfile)

	out, err := execute(t, "", "--format", "json", "validate", dir)
	require.NoError(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, "narrow", result.Profile)
	assert.Equal(t, []string{"abilityTracker"}, result.Modules)
	assert.Equal(t, 1, result.Links)
}

func TestValidateProfileSplitAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "profile.cue"), "package profile\n\nprofile: \"split\"\nmodules: [\"haste\"]\n")
	writeFile(t, filepath.Join(dir, "links.cue"), `package profile

link: castHeal: {trigger: {kinds: ["cast"]}, referenced: {kinds: ["heal"]}}
`)

	out, err := execute(t, "", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Profile split valid (1 module(s), 1 link(s))")
}

func TestValidateReportsEveryError(t *testing.T) {
	dir := profileDir(t, `package profile

profile: "broken"
modules: ["nope", "haste", "haste"]
link: x: {trigger: {kinds: ["summon"]}, referenced: {kinds: ["heal"]}}
`)

	out, err := execute(t, "", "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "E103", result.Errors[0].Code)
	assert.Equal(t, "E105", result.Errors[1].Code)
	assert.Equal(t, "E110", result.Errors[2].Code)
	assert.Equal(t, "E103", resp.Error.Code)
}

func TestValidateErrorsText(t *testing.T) {
	dir := profileDir(t, "package profile\n\nprofile: \"p\"\nmodules: [\"nope\"]\n")

	out, err := execute(t, "", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E103: modules[0]: unknown module")
}

func TestValidateSchemaViolation(t *testing.T) {
	dir := profileDir(t, "package profile\n\nprofile: \"p\"\nmodules: []\ncolour: \"red\"\n")

	out, err := execute(t, "", "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "schema errors are validation failures")

	var result ValidationResult
	decode(t, out, &result)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrCodeSchema, result.Errors[0].Code)
	assert.Equal(t, "schema", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "colour")
}

func TestValidateCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
	}{
		{"missing directory", func(t *testing.T) string { return "/nonexistent/profile" }, ErrCodeNotFound},
		{"not a directory", func(t *testing.T) string {
			return writeFile(t, filepath.Join(t.TempDir(), "profile.cue"), narrowProfile)
		}, ErrCodeNotFound},
		{"no cue files", func(t *testing.T) string { return t.TempDir() }, ErrCodeNoFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", "--format", "json", "validate", tt.dir(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestValidateMissingArgs(t *testing.T) {
	_, err := execute(t, "", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
