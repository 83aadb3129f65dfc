package sqlmodel

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

func TestNewVoucherFromModel(t *testing.T) {
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	id := node.Generate().String()

	voucher := &confidential.Voucher{
		Request: confidential.VoucherRequest{
			ID:               id,
			Owner:            "0xowner",
			SessionPublicKey: []byte{1, 2, 3},
			Verifier:         "verifier",
			ExpiresAt:        1700003600,
		},
		Nonce:     4,
		GrantedAt: 1700000000,
	}

	voucherDB, err := NewVoucherFromModel(voucher)
	require.NoError(t, err)
	assert.Equal(t, id, voucherDB.VoucherID())
	assert.Equal(t, uint64(4), voucherDB.Nonce)
	assert.Equal(t, time.Unix(1700003600, 0), voucherDB.ExpiresAt)

	parsed, err := ParseVoucherID(id)
	require.NoError(t, err)
	assert.Equal(t, voucherDB.ID, parsed)

	voucher.Request.ID = "not-a-snowflake"
	_, err = NewVoucherFromModel(voucher)
	assert.Error(t, err)
}

func TestCiphertextToModel(t *testing.T) {
	var h handle.EncryptedHandle
	h[0] = 0xab

	info, err := (&Ciphertext{Handle: h.String(), Owner: "0xowner", Scope: "s", CreatedAt: time.Unix(42, 0)}).ToModel()
	require.NoError(t, err)
	assert.Equal(t, h, info.Handle)
	assert.Equal(t, int64(42), info.CreatedAt)

	_, err = (&Ciphertext{Handle: "0x12"}).ToModel()
	assert.Error(t, err)
}
