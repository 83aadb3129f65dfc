package appinit

import (
	"fmt"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	errors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao/fabricbcao"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/eventmgr"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/eventmgr/fabriceventmgr"
	"gitee.com/czyczk/attested-reveal/internal/global"
	"gitee.com/czyczk/attested-reveal/internal/networkinfo"
)

// SetupSDK creates the Fabric SDK instance from the specified config file. The instance will be available as a singleton in `global.SDKInstance`.
func SetupSDK(configFile string) error {
	if global.SDKInstance != nil {
		return nil
	}

	sdk, err := fabsdk.New(config.FromFile(configFile))
	if err != nil {
		return errors.Wrap(err, "无法初始化 Fabric SDK")
	}
	global.SDKInstance = sdk

	return nil
}

// CloseSDK releases the Fabric SDK instance and the clients created from it.
func CloseSDK() {
	if global.SDKInstance == nil {
		return
	}

	global.SDKInstance.Close()
	global.SDKInstance = nil
	global.ChannelClientInstances = nil
}

// InstantiateChannelClient creates a channel client on the specified channel for the specified user in the specified org. The channel client will be available as singletons in `global.ChannelClientInstances`.
//
// Parameters:
//   channel ID
//   organization name
//   user ID
func InstantiateChannelClient(channelID, orgName, userID string) (*channel.Client, error) {
	if global.SDKInstance == nil {
		return nil, fmt.Errorf("Fabric SDK 尚未初始化")
	}

	if global.ChannelClientInstances == nil {
		global.ChannelClientInstances = make(map[string]map[string]map[string]*channel.Client)
	}
	if global.ChannelClientInstances[channelID] == nil {
		global.ChannelClientInstances[channelID] = make(map[string]map[string]*channel.Client)
	}
	if global.ChannelClientInstances[channelID][orgName] == nil {
		global.ChannelClientInstances[channelID][orgName] = make(map[string]*channel.Client)
	}

	if client := global.ChannelClientInstances[channelID][orgName][userID]; client != nil {
		return client, nil
	}

	clientCtx := global.SDKInstance.ChannelContext(channelID, fabsdk.WithUser(userID), fabsdk.WithOrg(orgName))
	channelClient, err := channel.New(clientCtx)
	if err != nil {
		return nil, errors.Wrapf(err, "无法在通道 '%v' 上为 %v@%v 创建通道客户端", channelID, userID, orgName)
	}
	global.ChannelClientInstances[channelID][orgName][userID] = channelClient

	log.Infof("已在通道 '%v' 上为 %v@%v 创建通道客户端。", channelID, userID, orgName)

	return channelClient, nil
}

// SetupFabricLedger connects to the ledger chaincode on Fabric.
func SetupFabricLedger(info *FabricLedgerInfo) (*fabricbcao.LedgerBCAOFabricImpl, error) {
	if info == nil {
		return nil, fmt.Errorf("未指定 Fabric 账本配置")
	}
	if info.ChannelID == "" || info.OrgName == "" || info.UserID == "" || info.ChaincodeID == "" {
		return nil, fmt.Errorf("Fabric 账本配置不完整：需要 channelID、orgName、userID 与 chaincodeID")
	}

	if err := SetupSDK(info.SDKConfig); err != nil {
		return nil, err
	}

	sdkConfig, err := global.SDKInstance.Config()
	if err != nil {
		return nil, errors.Wrap(err, "无法读取 Fabric SDK 配置")
	}
	networkConfig, err := networkinfo.ParseFabricNetworkConfig(sdkConfig)
	if err != nil {
		return nil, err
	}
	peerURLs, err := networkConfig.PeerURLsOf(info.OrgName, info.UserID)
	if err != nil {
		return nil, err
	}
	log.Debugf("组织 %v 的节点: %v", info.OrgName, peerURLs)

	channelClient, err := InstantiateChannelClient(info.ChannelID, info.OrgName, info.UserID)
	if err != nil {
		return nil, err
	}

	return fabricbcao.NewLedgerBCAOFabricImpl(&chaincodectx.FabricChaincodeCtx{
		ChannelID:     info.ChannelID,
		OrgName:       info.OrgName,
		Username:      info.UserID,
		ChaincodeID:   info.ChaincodeID,
		ChannelClient: channelClient,
	}), nil
}

// WatchFabricGrants listens to the grant events of the ledger chaincode. SetupFabricLedger must have succeeded.
func WatchFabricGrants(info *FabricLedgerInfo) (*eventmgr.GrantWatch, error) {
	channelClient, err := InstantiateChannelClient(info.ChannelID, info.OrgName, info.UserID)
	if err != nil {
		return nil, err
	}

	return eventmgr.WatchGrants(fabriceventmgr.NewFabricEventManager(channelClient, info.ChaincodeID))
}
