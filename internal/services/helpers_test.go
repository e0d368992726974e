package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/keystore"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
)

var (
	alice = strings.Repeat("a", 64)
	bob   = strings.Repeat("b", 64)
	carol = strings.Repeat("c", 64)
	dave  = strings.Repeat("d", 64)
)

type env struct {
	db     *sql.DB
	keys   *keystore.Memory
	cipher *cryptox.AccountCipher
	log    logging.Logger
}

func setup(t *testing.T) *env {
	t.Helper()
	db, err := dbx.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	keys := keystore.NewMemory()
	return &env{db: db, keys: keys, cipher: cryptox.NewAccountCipher(keys), log: logging.Nop()}
}

func countRows(t *testing.T, db *sql.DB, table, owner string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE owner_pubkey = ?`, owner).Scan(&n))
	return n
}
