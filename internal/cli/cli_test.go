package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/service/sources"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitCritical, ExitCode(sources.Critical("treasury", errors.New("timeout"))))
	assert.Equal(t, ExitCritical, ExitCode(fmt.Errorf("bond: %w", sources.Critical("kline", errors.New("503")))))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBondRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "bond", "--mode", "weekly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --mode")

	_, err = execute(t, "bond", "--mode", "incremental", "--days", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--days")
}

func TestPushRejectsUnknownFlow(t *testing.T) {
	_, err := execute(t, "push", "weekly")
	require.Error(t, err)

	_, err = execute(t, "push", "daily", "alert")
	require.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"bond", "dividend", "lof", "summary", "push", "serve", "history"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache_dir: "+cacheDir+"\ndata_dir: "+dir+"\n"), 0o644))

	h := applogger.NewExecutionHistory(filepath.Join(cacheDir, historyFile))
	require.NoError(t, h.Record(applogger.ExecutionRecord{Command: "bond", Success: 1, Duration: 12, Trigger: "manual"}))
	require.NoError(t, h.Record(applogger.ExecutionRecord{Command: "lof", Failed: 1, Duration: 3, Trigger: "schedule"}))

	out, err := execute(t, "history", "-c", cfgPath, "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "总执行次数: 2")
	assert.Contains(t, out, "✅")
	assert.Contains(t, out, "❌")
	assert.Contains(t, out, "bond")
	assert.Contains(t, out, "(schedule)")
}

func TestHistoryCommandEmpty(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache_dir: "+dir+"\n"), 0o644))

	out, err := execute(t, "history", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "暂无执行记录")
	assert.NotContains(t, out, "✅")
}
