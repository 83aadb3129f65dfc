package global

import (
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
)

// SDKInstance is the Fabric SDK shared by every Fabric ledger of the process. It is nil unless a Fabric ledger is configured.
var SDKInstance *fabsdk.FabricSDK

// ChannelClientInstances caches channel clients. A lookup takes `channelID` followed by `orgName` and `username`.
var ChannelClientInstances map[string]map[string]map[string]*channel.Client
