package chaincodectx

import (
	"gitee.com/czyczk/attested-reveal/internal/blockchain"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
)

// ChannelClient is the part of `*channel.Client` the ledger adapter uses.
type ChannelClient interface {
	Query(request channel.Request, options ...channel.RequestOption) (channel.Response, error)
	Execute(request channel.Request, options ...channel.RequestOption) (channel.Response, error)
}

type FabricChaincodeCtx struct {
	ChannelID     string
	OrgName       string
	Username      string
	ChaincodeID   string
	ChannelClient ChannelClient
}

func (ctx *FabricChaincodeCtx) GetBCType() blockchain.BCType {
	return blockchain.Fabric
}
