package appinit

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/blockchain"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao/gatewaybcao"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/internal/service"
	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// RevealContext wires the reveal services of one owner account.
type RevealContext struct {
	Owner        signer.Signer
	Connection   *signer.Connection
	Confidential bcao.IConfidentialBCAO
	Ledger       bcao.ILedgerAdminBCAO
	Sessions     *service.SessionKeyService
	Decryption   *service.DecryptionService
	Reveals      *service.RevealService

	closeLedger func()
}

// GatewayBCAOs creates the confidential and ledger adapters of the gateway in the client config.
func GatewayBCAOs(info *ClientInfo, callerAddress string) (*gatewaybcao.ConfidentialBCAOGatewayImpl, *gatewaybcao.LedgerBCAOGatewayImpl, error) {
	if info.Gateway.URL == "" {
		return nil, nil, fmt.Errorf("未指定网关地址")
	}

	gctx := &chaincodectx.GatewayCtx{
		CallerAddress: callerAddress,
		APIPrefix:     info.Gateway.URL,
		Timeout:       info.Gateway.Timeout,
	}

	return gatewaybcao.NewConfidentialBCAOGatewayImpl(gctx), gatewaybcao.NewLedgerBCAOGatewayImpl(gctx), nil
}

// SetupLedger connects to the ledger selected in the client config. The returned func releases it.
func SetupLedger(info *ClientInfo, gatewayLedger bcao.ILedgerAdminBCAO) (bcao.ILedgerAdminBCAO, func(), error) {
	switch blockchain.ParseBCType(info.Ledger.Type) {
	case blockchain.Gateway:
		return gatewayLedger, func() {}, nil
	case blockchain.Fabric:
		ledger, err := SetupFabricLedger(info.Ledger.Fabric)
		if err != nil {
			return nil, nil, err
		}
		return ledger, CloseSDK, nil
	default:
		return nil, nil, fmt.Errorf("无法识别的账本类型 '%v'", info.Ledger.Type)
	}
}

// NewRevealContext builds the reveal services from the client config. `in` and `out` are the terminal used by an interactive signer.
//
// Parameters:
//   the client config
//   the input of the terminal
//   the output of the terminal
//
// Returns:
//   a reveal context whose signer is connected
func NewRevealContext(info *ClientInfo, in io.Reader, out io.Writer) (*RevealContext, error) {
	if info.Owner.PrivateKey == "" {
		return nil, fmt.Errorf("未指定所有者私钥")
	}

	ownerKey, err := LoadSM2PrivateKey(info.Owner.PrivateKey)
	if err != nil {
		return nil, err
	}

	var owner signer.Signer = signer.NewSM2Signer(ownerKey)
	if info.Owner.Interactive {
		owner = signer.NewPromptSigner(owner, in, out)
	}

	validators, err := LoadSM2PublicKeys(info.Attestation.Validators)
	if err != nil {
		return nil, err
	}
	if info.Attestation.Threshold > len(validators) {
		return nil, fmt.Errorf("证明阈值 %v 超过了协同验证者数量 %v", info.Attestation.Threshold, len(validators))
	}

	confidentialBCAO, gatewayLedger, err := GatewayBCAOs(info, owner.Address())
	if err != nil {
		return nil, err
	}

	ledger, closeLedger, err := SetupLedger(info, gatewayLedger)
	if err != nil {
		return nil, err
	}

	conn := signer.NewConnection()
	conn.Connect(owner)

	clock := timingutils.RealClock{}
	decryption := &service.DecryptionService{
		ConfidentialBCAO: confidentialBCAO,
		Verifier:         service.NewAttestationVerifier(validators, info.Attestation.Threshold),
		Retry:            *info.Retry,
		Clock:            clock,
	}

	sessions := service.NewSessionKeyService(confidentialBCAO, conn, info.Session.Verifier, info.Session.Validity, clock, *info.Retry)
	sessions.SetRevokeTimeout(info.Session.RevokeTimeout)

	log.Infof("账户 %v 已连接，账本类型 %v", owner.Address(), info.Ledger.Type)

	return &RevealContext{
		Owner:        owner,
		Connection:   conn,
		Confidential: confidentialBCAO,
		Ledger:       ledger,
		Sessions:     sessions,
		Decryption:   decryption,
		Reveals: &service.RevealService{
			Decryption: decryption,
			Sessions:   sessions,
			Probe:      &service.ACLProbeService{LedgerBCAO: ledger},
			Connection: conn,
		},
		closeLedger: closeLedger,
	}, nil
}

// Reveal reveals the handles of a business object on behalf of the owner.
func (c *RevealContext) Reveal(ctx context.Context, domainObjectID string, hs []handle.EncryptedHandle) (*service.RevealResult, error) {
	return c.Reveals.Reveal(ctx, domainObjectID, hs, c.Owner.Address())
}

// RevealSlots reads the handles stored in the named ledger slots and reveals them as one business object.
func (c *RevealContext) RevealSlots(ctx context.Context, domainObjectID string, slots []string) (*service.RevealResult, error) {
	hs := make([]handle.EncryptedHandle, len(slots))
	for i, slot := range slots {
		h, err := c.Ledger.GetHandle(ctx, slot)
		if err != nil {
			return nil, err
		}
		hs[i] = h
	}

	return c.Reveal(ctx, domainObjectID, hs)
}

// CreateSession asks the owner to sign a session voucher once. Later reveals need no owner signature until it expires.
func (c *RevealContext) CreateSession(ctx context.Context) error {
	return c.Sessions.Create(ctx)
}

// RevokeSession drops the session credential and invalidates it on the network.
func (c *RevealContext) RevokeSession(ctx context.Context) error {
	return c.Sessions.Revoke(ctx)
}

// IsSessionValid reports whether a session credential is usable right now.
func (c *RevealContext) IsSessionValid() bool {
	return c.Sessions.IsValid()
}

// Close revokes the session, disconnects the signer and releases the ledger.
func (c *RevealContext) Close(ctx context.Context) error {
	err := c.Sessions.Close(ctx)
	c.Connection.Disconnect()
	c.closeLedger()

	return err
}
