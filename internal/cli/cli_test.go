package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/robotech_store/internal/models"
	"github.com/Skotchmaster/robotech_store/pkg/config"
	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
)

func execute(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(config.Config{SQLitePath: path})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string, data any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(config.Config{})
	for _, name := range []string{"reset", "seed", "verify", "summary", "list", "clear-cart", "reindex"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	assert.Equal(t, FormatText, cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "store.db"), "summary", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResetVerifyAndDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	out, err := execute(t, path, "reset", "--format", "json")
	require.NoError(t, err, out)
	var seeded seedResult
	decode(t, out, &seeded)
	assert.Equal(t, 60, seeded.Inserted)
	assert.Equal(t, pkgdb.BackendSQLite, seeded.Backend)
	assert.Empty(t, seeded.Failed)

	out, err = execute(t, path, "verify")
	require.NoError(t, err, out)
	assert.Contains(t, out, "matches sqlite")

	st, err := pkgdb.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, st.DB.Model(&models.Product{}).Where("id = ?", 5).Update("name", "Clone Uno").Error)
	require.NoError(t, st.DB.Delete(&models.Product{}, 7).Error)
	require.NoError(t, st.Close())

	out, err = execute(t, path, "verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "missing    7")
	assert.Contains(t, out, `changed    5 name: want "Arduino Uno R3", got "Clone Uno"`)

	out, err = execute(t, path, "seed", "--format", "json")
	require.NoError(t, err, out)
	decode(t, out, &seeded)
	assert.Equal(t, 60, seeded.Inserted)

	_, err = execute(t, path, "verify")
	require.NoError(t, err)
}

func TestSummaryAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	_, err := execute(t, path, "reset")
	require.NoError(t, err)

	out, err := execute(t, path, "summary", "--format", "json")
	require.NoError(t, err)
	var s struct {
		Total      int    `json:"total"`
		Featured   int    `json:"featured"`
		StockValue string `json:"stock_value"`
	}
	decode(t, out, &s)
	assert.Equal(t, 60, s.Total)
	assert.Equal(t, 10, s.Featured)
	assert.Equal(t, "649800", s.StockValue)

	out, err = execute(t, path, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Sensors")
	assert.Contains(t, out, "stock value 649800.00")

	out, err = execute(t, path, "list", "--category", "Sensors", "--format", "json")
	require.NoError(t, err)
	var products []models.Product
	decode(t, out, &products)
	assert.Len(t, products, 15)

	out, err = execute(t, path, "list", "-c", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Arduino Uno R3")
}

func TestClearCart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	_, err := execute(t, path, "reset")
	require.NoError(t, err)

	st, err := pkgdb.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, st.DB.Create(&models.User{ID: "u1", Phone: "+1"}).Error)
	require.NoError(t, st.DB.Create(&models.User{ID: "u2", Phone: "+2"}).Error)
	require.NoError(t, st.DB.Create(&models.CartItem{UserID: "u1", ProductID: 5, Quantity: 1}).Error)
	require.NoError(t, st.DB.Create(&models.CartItem{UserID: "u2", ProductID: 5, Quantity: 2}).Error)
	require.NoError(t, st.Close())

	out, err := execute(t, path, "clear-cart", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 cart rows, 0 remaining")

	out, err = execute(t, path, "clear-cart", "--format", "json")
	require.NoError(t, err)
	var res map[string]int64
	decode(t, out, &res)
	assert.Equal(t, map[string]int64{"removed": 1, "remaining": 0}, res)
}

func TestReindexNeedsSearchBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	_, err := execute(t, path, "reset")
	require.NoError(t, err)

	out, err := execute(t, path, "reindex", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"status":"error"`)
}
