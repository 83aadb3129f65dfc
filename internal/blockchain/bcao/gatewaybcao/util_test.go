package gatewaybcao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

func newTestServer(t *testing.T, status int, body string) *chaincodectx.GatewayCtx {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return &chaincodectx.GatewayCtx{
		APIPrefix: server.URL,
		Timeout:   5 * time.Second,
	}
}

func TestDecodesOkEnvelope(t *testing.T) {
	h := handle.EncryptedHandle{0xab}
	body := `{"ok":[{"handle":"` + h.String() + `","value":18446744073709551615,"attestations":[{"validator":"0x01","signature":"AQI="}]}]}`
	o := NewConfidentialBCAOGatewayImpl(newTestServer(t, http.StatusOK, body))

	ret, err := o.DecryptWithOwner(context.Background(), &confidential.Signed{Payload: []byte{1}, Signature: []byte{2}})
	require.NoError(t, err)
	require.Len(t, ret, 1)
	assert.Equal(t, h, ret[0].Handle)
	assert.Equal(t, uint64(18446744073709551615), ret[0].Value)
	assert.Equal(t, []byte{1, 2}, ret[0].Attestations[0].Signature)
}

func TestMalformedHandleIsInvalidHandle(t *testing.T) {
	body := `{"ok":[{"handle":"0x1234","value":1,"attestations":[]}]}`
	o := NewConfidentialBCAOGatewayImpl(newTestServer(t, http.StatusOK, body))

	_, err := o.DecryptWithOwner(context.Background(), &confidential.Signed{Payload: []byte{1}, Signature: []byte{2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errorcode.ErrorInvalidHandle), err.Error())
	assert.Equal(t, errorcode.CategoryInvalidHandle, errorcode.Classify(err).Category)
}

func TestCodedErrorsAreClassified(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusConflict, `{"err":{"code":"~ACCESSNOTPROPAGATED~","msg":"授权尚未同步"}}`, errorcode.ErrorAccessNotPropagated},
		{http.StatusForbidden, `{"err":{"code":"~FORBIDDEN~","msg":"无权解密"}}`, errorcode.ErrorForbidden},
		{http.StatusUnauthorized, `{"err":{"code":"~SESSIONREVOKED~","msg":"会话已吊销"}}`, errorcode.ErrorSessionRevoked},
		{http.StatusBadGateway, `upstream down`, errorcode.ErrorNetworkUnavailable},
		{http.StatusInternalServerError, `{"err":{"msg":"数据库错误"}}`, errorcode.ErrorNetworkUnavailable},
	}

	for _, c := range cases {
		o := NewConfidentialBCAOGatewayImpl(newTestServer(t, c.status, c.body))
		_, err := o.DecryptWithOwner(context.Background(), &confidential.Signed{})
		assert.True(t, errors.Is(err, c.want), "%v: %v", c.body, err)
	}
}

func TestUncodedClientErrorIsNotRetryable(t *testing.T) {
	o := NewLedgerBCAOGatewayImpl(newTestServer(t, http.StatusBadRequest, `{"err":{"msg":"参数错误"}}`))
	_, err := o.CheckDecryptAccess(context.Background(), handle.EncryptedHandle{1}, "0x01")
	require.Error(t, err)
	assert.False(t, errorcode.IsRetryable(err))
}

func TestUnreachableGatewayIsNetworkUnavailable(t *testing.T) {
	gctx := newTestServer(t, http.StatusOK, `{"ok":true}`)
	gctx.APIPrefix = "http://127.0.0.1:1"

	o := NewLedgerBCAOGatewayImpl(gctx)
	_, err := o.CheckDecryptAccess(context.Background(), handle.EncryptedHandle{1}, "0x01")
	assert.True(t, errors.Is(err, errorcode.ErrorNetworkUnavailable))
}

func TestCheckDecryptAccessDecodesBool(t *testing.T) {
	o := NewLedgerBCAOGatewayImpl(newTestServer(t, http.StatusOK, `{"ok":true}`))
	allowed, err := o.CheckDecryptAccess(context.Background(), handle.EncryptedHandle{1}, "0x01")
	require.NoError(t, err)
	assert.True(t, allowed)
}
