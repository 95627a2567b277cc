package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plus3/flatecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyConfig = `
store:
  max_entities: 16
  max_component_kinds: 4
  max_component_size: 4
logging:
  level: error
bench:
  iterations: 2
stress:
  entities: 8
  systems: 2
  duration: 20ms
`

var tinyStore = ecs.Config{MaxEntities: 16, MaxComponentKinds: 4, MaxComponentSize: 4}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "flatecs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tinyConfig), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "flatecs", cmd.Use)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"bench"}, {"stress"}, {"logo"}, {"inspect"},
		{"saves"}, {"saves", "list"}, {"saves", "import"}, {"saves", "export"}, {"saves", "delete"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestBadConfigExitCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\nmax_entities = 0\n"), 0o644))

	_, err := execute(t, "--config", path, "bench")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, ecs.ErrInvalidConfig)
}

func TestBench(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := execute(t, "--config", cfg, "bench", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "# flatecs benchmark")
	assert.Contains(t, out, "- **Entities:** 16")
	assert.Contains(t, out, "- **Iterations:** 1")

	_, err = execute(t, "--config", cfg, "bench", "--profile", "gpu")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBenchProfile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	_, err := execute(t, "--config", cfg, "bench", "--profile", "mem", "--profile-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "mem.pprof"))
}

func TestStress(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := execute(t, "--config", cfg, "stress", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "# ECS Stress Test Report")
	assert.Contains(t, out, "**Generated Systems:** 2")
}

func TestLogo(t *testing.T) {
	out, err := execute(t, "logo", "--frames", "2", "--delay", "1ms", "--seed", "9")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "ecs.h"))
	assert.Contains(t, out, "[_]")
}

func TestLogoRejectsZeroDelay(t *testing.T) {
	out, err := execute(t, "logo", "--frames", "2", "--delay", "0", "--seed", "9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.NotContains(t, out, "ecs.h")
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	snap := filepath.Join(dir, "world.snap")

	storage := ecs.MustNewStorage(tinyStore)
	for i := range 3 {
		e, err := storage.CreateEntity()
		require.NoError(t, err)
		require.NoError(t, storage.AddComponent(e, 2, []byte{byte(i)}))
	}
	require.NoError(t, storage.SaveFile(snap))

	out, err := execute(t, "--config", cfg, "inspect", snap)
	require.NoError(t, err)
	assert.Regexp(t, `live entities +3\n`, out)
	assert.Regexp(t, `kind 2 +3 entities\n`, out)
	assert.NotContains(t, out, "kind 0")

	// default capacities differ from the file's
	_, err = execute(t, "inspect", snap)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, ecs.ErrTruncated)

	_, err = execute(t, "--config", cfg, "inspect", filepath.Join(dir, "missing.snap"))
	assert.ErrorIs(t, err, ecs.ErrIO)
}

func TestSavesLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	db := filepath.Join(dir, "saves.db")
	snap := filepath.Join(dir, "world.snap")

	storage := ecs.MustNewStorage(tinyStore)
	_, err := storage.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, storage.SaveFile(snap))

	out, err := execute(t, "--config", cfg, "saves", "import", snap, "--db", db, "--slot", "quick")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Len(t, id, 36)

	out, err = execute(t, "--config", cfg, "saves", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "quick")
	assert.Contains(t, out, "16/4/4")

	exported := filepath.Join(dir, "exported.snap")
	_, err = execute(t, "--config", cfg, "saves", "export", id, exported, "--db", db)
	require.NoError(t, err)
	original, err := os.ReadFile(snap)
	require.NoError(t, err)
	roundTripped, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Equal(t, original, roundTripped)

	_, err = execute(t, "--config", cfg, "saves", "delete", id, "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "--config", cfg, "saves", "delete", id, "--db", db)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "--config", cfg, "saves", "delete", "not-a-uuid", "--db", db)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", nil)))

	wrapped := WrapExitError(ExitFailure, "load", os.ErrNotExist)
	assert.Equal(t, "load: file does not exist", wrapped.Error())
	assert.ErrorIs(t, wrapped, os.ErrNotExist)
}
