package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// executeCmd runs one matchcolor invocation against store and captures its
// output.
func executeCmd(t *testing.T, store storage.Store, args ...string) (string, error) {
	t.Helper()
	app := NewApp(Deps{
		Store:  store,
		Clock:  scheduler.NewManualClock(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)),
		Logger: zap.NewNop(),
	})
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))
	err := root.Execute()
	require.NoError(t, app.Close())
	return buf.String(), err
}

func TestPlayShowsUnlocks(t *testing.T) {
	store := storage.NewMemoryStore()

	out, err := executeCmd(t, store, "play", "--mode", "zen", "--score", "150")
	require.NoError(t, err)
	assert.Contains(t, out, "ACHIEVEMENT UNLOCKED")
	assert.Contains(t, out, "First Steps")

	out, err = executeCmd(t, store, "play", "--mode", "zen", "--score", "150")
	require.NoError(t, err)
	assert.Contains(t, out, "No new achievements.")

	out, err = executeCmd(t, store, "coins")
	require.NoError(t, err)
	assert.Equal(t, "10 coins\n", out)
}

func TestStatus(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := executeCmd(t, store, "play", "--score", "1000", "--lives", "2")
	require.NoError(t, err)

	out, err := executeCmd(t, store, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Games played: 1")
	assert.Contains(t, out, "Active power-ups: none")
}

func TestAchievementsCategory(t *testing.T) {
	store := storage.NewMemoryStore()

	out, err := executeCmd(t, store, "achievements", "--category", "speed")
	require.NoError(t, err)
	assert.Contains(t, out, "SPEED")
	assert.NotContains(t, out, "STREAK")

	_, err = executeCmd(t, store, "achievements", "--category", "spd")
	assert.EqualError(t, err, `unknown category "spd", did you mean "speed"?`)
}

func TestCoinsAdd(t *testing.T) {
	store := storage.NewMemoryStore()

	out, err := executeCmd(t, store, "coins", "add", "1500")
	require.NoError(t, err)
	assert.Equal(t, "1,500 coins\n", out)

	for _, bad := range []string{"0", "-5", "lots"} {
		_, err := executeCmd(t, store, "coins", "add", bad)
		assert.Error(t, err, bad)
	}

	stored, err := store.Get(powerups.CoinsKey)
	require.NoError(t, err)
	assert.Equal(t, "1500", stored)
}

func TestBuy(t *testing.T) {
	store := storage.NewMemoryStore()

	_, err := executeCmd(t, store, "buy", "time_boost")
	assert.EqualError(t, err, "Time Boost costs 50 coins, you have 0")

	_, err = executeCmd(t, store, "buy", "time_bost")
	assert.EqualError(t, err, `unknown power-up "time_bost", did you mean "time_boost"?`)

	_, err = executeCmd(t, store, "coins", "add", "100")
	require.NoError(t, err)

	out, err := executeCmd(t, store, "buy", "time_boost")
	require.NoError(t, err)
	assert.Contains(t, out, "time 1m15s")

	out, err = executeCmd(t, store, "coins")
	require.NoError(t, err)
	assert.Equal(t, "50 coins\n", out)
}

func TestPowerUpsListing(t *testing.T) {
	out, err := executeCmd(t, storage.NewMemoryStore(), "powerups")
	require.NoError(t, err)
	assert.Contains(t, out, "balance: 0 coins")
	assert.Contains(t, out, "Time Boost")
	assert.Contains(t, out, "Extra Life")
}

func TestReset(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := executeCmd(t, store, "play", "--score", "150")
	require.NoError(t, err)

	_, err = executeCmd(t, store, "reset")
	assert.Error(t, err)

	out, err := executeCmd(t, store, "reset", "--coins")
	require.NoError(t, err)
	assert.Equal(t, "Coins and power-ups reset.\n", out)

	out, err = executeCmd(t, store, "coins")
	require.NoError(t, err)
	assert.Equal(t, "0 coins\n", out)

	out, err = executeCmd(t, store, "play", "--score", "150")
	require.NoError(t, err)
	assert.Contains(t, out, "No new achievements.")

	_, err = executeCmd(t, store, "reset", "--all")
	require.NoError(t, err)

	out, err = executeCmd(t, store, "play", "--score", "150")
	require.NoError(t, err)
	assert.Contains(t, out, "First Steps")
}

func TestBadLogLevelFlag(t *testing.T) {
	_, err := executeCmd(t, storage.NewMemoryStore(), "--log-level", "chatty", "status")
	assert.ErrorContains(t, err, "log_level")
}
