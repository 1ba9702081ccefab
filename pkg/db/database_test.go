package db

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

type note struct {
	ID   int `gorm:"primaryKey"`
	Body string
}

func (note) TableName() string { return "notes" }

type counter struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
	Hits int
}

func (counter) TableName() string { return "counters" }

func memStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenFallsBackWhenPrimaryUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	st, err := Open(context.Background(), Options{
		PrimaryDSN:     "postgres://u:p@127.0.0.1:1/store?sslmode=disable&connect_timeout=1",
		FallbackPath:   path,
		ConnectTimeout: 2 * time.Second,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, BackendSQLite, st.Backend())
	require.NoError(t, st.Ping(context.Background()))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpenWithoutPrimaryUsesEmbedded(t *testing.T) {
	st, err := Open(context.Background(), Options{FallbackPath: MemoryPath})
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, BackendSQLite, st.Backend())
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	require.Error(t, err)
}

func TestSQLiteForeignKeysEnabled(t *testing.T) {
	st := memStore(t)

	var on int
	require.NoError(t, st.DB.Raw("PRAGMA foreign_keys").Scan(&on).Error)
	assert.Equal(t, 1, on)
}

func TestLikePatternEscapes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "%sensor%", LikePattern("sensor"))
	assert.Equal(t, `%50\%\_off%`, LikePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, LikePattern(`a\b`))
}

func TestDialectFragments(t *testing.T) {
	t.Parallel()

	pg := postgresDialect{}
	assert.Equal(t, `name ILIKE ? ESCAPE '\'`, pg.Contains("name"))
	assert.Equal(t, `name COLLATE "C" DESC`, pg.OrderText("name", true))
	assert.Equal(t, `"cart"."quantity" + EXCLUDED."quantity"`, pg.Accumulate("cart", "quantity").SQL)

	lite := sqliteDialect{}
	assert.Equal(t, `name LIKE ? ESCAPE '\'`, lite.Contains("name"))
	assert.Equal(t, "name ASC", lite.OrderText("name", false))
}

func TestSQLiteContainsIsCaseInsensitiveAndLiteral(t *testing.T) {
	st := memStore(t)
	require.NoError(t, st.DB.AutoMigrate(&note{}))
	require.NoError(t, st.DB.Create(&[]note{
		{ID: 1, Body: "50%_OFF today"},
		{ID: 2, Body: "50 off tomorrow"},
		{ID: 3, Body: "Nothing"},
	}).Error)

	var got []note
	require.NoError(t, st.DB.Where(st.Dialect.Contains("body"), LikePattern("50%_off")).Order("id").Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	got = nil
	require.NoError(t, st.DB.Where(st.Dialect.Contains("body"), LikePattern("OFF")).Order("id").Find(&got).Error)
	assert.Len(t, got, 2)
}

func TestSQLiteUpsertSetAndAccumulate(t *testing.T) {
	st := memStore(t)
	require.NoError(t, st.DB.AutoMigrate(&counter{}))
	d := st.Dialect

	add := func(hits int) {
		require.NoError(t, st.DB.Clauses(d.Upsert([]string{"name"}, clause.Set{
			{Column: clause.Column{Name: "hits"}, Value: d.Accumulate("counters", "hits")},
		})).Create(&counter{Name: "a", Hits: hits}).Error)
	}
	add(2)
	add(3)

	var c counter
	require.NoError(t, st.DB.Where("name = ?", "a").First(&c).Error)
	assert.Equal(t, 5, c.Hits)

	require.NoError(t, st.DB.Clauses(d.Upsert([]string{"name"}, clause.Set{
		{Column: clause.Column{Name: "hits"}, Value: 9},
	})).Create(&counter{Name: "a", Hits: 9}).Error)

	var n int64
	require.NoError(t, st.DB.Model(&counter{}).Count(&n).Error)
	require.NoError(t, st.DB.Where("name = ?", "a").First(&c).Error)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 9, c.Hits)

	require.NoError(t, d.ResetIdentity(st.DB, "counters", "id"))
}

func TestPostgresDialectAgainstServer(t *testing.T) {
	dsn := os.Getenv("STORE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STORE_TEST_DATABASE_URL is not set")
	}
	st, err := OpenPostgres(context.Background(), dsn, 5*time.Second)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.DB.Migrator().DropTable(&counter{}))
	require.NoError(t, st.DB.AutoMigrate(&counter{}))
	require.NoError(t, st.DB.Create(&counter{ID: 40, Name: "x"}).Error)
	require.NoError(t, st.Dialect.ResetIdentity(st.DB, "counters", "id"))

	next := counter{Name: "y"}
	require.NoError(t, st.DB.Create(&next).Error)
	assert.Equal(t, 41, next.ID)
}
