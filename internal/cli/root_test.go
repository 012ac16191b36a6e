package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenarioDir creates a temp directory holding one scenario file with
// the given contents.
func writeScenarioDir(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

const passingScenario = `
name: button_rename
tree:
  - id: doc
    document: true
  - id: button
    parent: doc
events:
  - type: name_change
    target: button
assertions:
  - type: dispatch_contains
    event: "name_change:button"
`

const failingScenario = `
name: impossible
tree:
  - id: doc
    document: true
  - id: button
    parent: doc
events:
  - type: name_change
    target: button
assertions:
  - type: no_dispatch
    event: "name_change:button"
`

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "a11yq", cmd.Use)
	assert.Contains(t, cmd.Long, "coalescing")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "replay", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	dir := writeScenarioDir(t, "s.yaml", passingScenario)

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"validate", dir, "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
