package devnet

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/czyczk/attested-reveal/internal/db"
	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// testStore exercises the behavior every Store must share.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()
	owner := "0x" + time.Now().Format("150405.000000000")

	_, err := store.GetCiphertext(ctx, owner)
	assert.True(t, errors.Is(err, errorcode.ErrorNotFound))

	require.NoError(t, store.PutCiphertext(ctx, &sqlmodel.Ciphertext{Handle: owner, Owner: owner, Sealed: []byte{1}, CreatedAt: time.Unix(1, 0)}))
	ciphertext, err := store.GetCiphertext(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, ciphertext.Sealed)

	first := &sqlmodel.AccessGrant{Handle: owner, Grantee: "0xg", VisibleAt: time.Unix(10, 0), CreatedAt: time.Unix(1, 0)}
	require.NoError(t, store.PutAccessGrant(ctx, first))
	require.NoError(t, store.PutAccessGrant(ctx, &sqlmodel.AccessGrant{Handle: owner, Grantee: "0xg", VisibleAt: time.Unix(99, 0), CreatedAt: time.Unix(2, 0)}))
	grant, err := store.GetAccessGrant(ctx, owner, "0xg")
	require.NoError(t, err)
	assert.Equal(t, int64(10), grant.VisibleAt.Unix())

	_, err = store.GetAccessGrant(ctx, owner, "0xh")
	assert.True(t, errors.Is(err, errorcode.ErrorNotFound))

	nonce, err := store.GetSessionNonce(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
	nonce, err = store.BumpSessionNonce(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
	nonce, err = store.BumpSessionNonce(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)

	voucherID := time.Now().UnixNano()
	require.NoError(t, store.PutVoucher(ctx, &sqlmodel.Voucher{ID: voucherID, Owner: owner, SessionPublicKey: []byte{2}, Nonce: 2, ExpiresAt: time.Unix(100, 0), GrantedAt: time.Unix(1, 0)}))
	voucher, err := store.GetVoucher(ctx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), voucher.Nonce)
	_, err = store.GetVoucher(ctx, voucherID+1)
	assert.True(t, errors.Is(err, errorcode.ErrorNotFound))

	require.NoError(t, store.PutSlot(ctx, &sqlmodel.Slot{Name: owner, Handle: "a"}))
	require.NoError(t, store.PutSlot(ctx, &sqlmodel.Slot{Name: owner, Handle: "b"}))
	slot, err := store.GetSlot(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "b", slot.Handle)
}

func TestMemStore(t *testing.T) {
	testStore(t, NewMemStore())
}

// TestGormStore runs against a MySQL database named by DEVNET_MYSQL_DSN.
func TestGormStore(t *testing.T) {
	dsn := os.Getenv("DEVNET_MYSQL_DSN")
	if dsn == "" {
		t.Skip("DEVNET_MYSQL_DSN 未设置")
	}

	conn, err := db.OpenMySQL(dsn, true)
	require.NoError(t, err)
	testStore(t, NewGormStore(conn))
}
