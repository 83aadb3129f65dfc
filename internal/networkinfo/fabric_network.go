package networkinfo

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab"
	"github.com/pkg/errors"
)

// FabricNetworkConfig contains the parts of the SDK config a reveal client checks before it connects to the ledger.
type FabricNetworkConfig struct {
	Orderers      map[string]FabricOrderer
	Organizations map[string]FabricOrganization
	Peers         map[string]FabricPeer
}

// FabricOrderer contains info about an orderer.
type FabricOrderer struct {
	Name string
	URL  string
}

// FabricOrganization contains info about an organization.
type FabricOrganization struct {
	Name       string
	MSPID      string
	CryptoPath string
	Peers      []string
	Users      []string
}

// FabricPeer contains info about a peer.
type FabricPeer struct {
	Name string
	URL  string
}

// lookupSection decodes one top-level section of the SDK config into `out`.
func lookupSection(configBackend core.ConfigBackend, section string, out interface{}) error {
	raw, ok := configBackend.Lookup(section)
	if !ok {
		return fmt.Errorf("SDK 配置中缺少 '%v' 部分", section)
	}

	sectionBytes, err := json.Marshal(raw)
	if err != nil {
		return errors.Wrapf(err, "无法序列化 SDK 配置的 '%v' 部分", section)
	}

	if err = json.Unmarshal(sectionBytes, out); err != nil {
		return errors.Wrapf(err, "无法解析 SDK 配置的 '%v' 部分", section)
	}

	return nil
}

// ParseFabricOrderers parses the "orderers" section of the config.
func ParseFabricOrderers(configBackend core.ConfigBackend) (map[string]FabricOrderer, error) {
	orderersMap := make(map[string]fab.OrdererConfig)
	if err := lookupSection(configBackend, "orderers", &orderersMap); err != nil {
		return nil, err
	}

	result := make(map[string]FabricOrderer)
	for k, v := range orderersMap {
		result[k] = FabricOrderer{Name: k, URL: v.URL}
	}

	return result, nil
}

// ParseFabricOrganizations parses the "organizations" section of the config.
func ParseFabricOrganizations(configBackend core.ConfigBackend) (map[string]FabricOrganization, error) {
	organizationsMap := make(map[string]fab.OrganizationConfig)
	if err := lookupSection(configBackend, "organizations", &organizationsMap); err != nil {
		return nil, err
	}

	result := make(map[string]FabricOrganization)
	for k, v := range organizationsMap {
		var users []string
		for userName := range v.Users {
			users = append(users, userName)
		}
		sort.Strings(users)

		result[k] = FabricOrganization{
			Name:       k,
			MSPID:      v.MSPID,
			CryptoPath: v.CryptoPath,
			Peers:      v.Peers,
			Users:      users,
		}
	}

	return result, nil
}

// ParseFabricPeers parses the "peers" section of the config.
func ParseFabricPeers(configBackend core.ConfigBackend) (map[string]FabricPeer, error) {
	peersMap := make(map[string]fab.PeerConfig)
	if err := lookupSection(configBackend, "peers", &peersMap); err != nil {
		return nil, err
	}

	result := make(map[string]FabricPeer)
	for k, v := range peersMap {
		result[k] = FabricPeer{Name: k, URL: v.URL}
	}

	return result, nil
}

// ParseFabricNetworkConfig parses the orderers, organizations and peers of the SDK config.
func ParseFabricNetworkConfig(configBackend core.ConfigBackend) (result FabricNetworkConfig, err error) {
	orderers, err := ParseFabricOrderers(configBackend)
	if err != nil {
		return
	}

	organizations, err := ParseFabricOrganizations(configBackend)
	if err != nil {
		return
	}

	peers, err := ParseFabricPeers(configBackend)
	if err != nil {
		return
	}

	result = FabricNetworkConfig{Orderers: orderers, Organizations: organizations, Peers: peers}
	return
}

// PeerURLsOf returns the URLs of the peers an organization endorses with. The organization must be present in the config.
// The user is only checked when the organization lists its users, since users may also be enrolled from a CA.
func (c FabricNetworkConfig) PeerURLsOf(orgName, userID string) ([]string, error) {
	org, ok := c.Organizations[orgName]
	if !ok {
		return nil, fmt.Errorf("SDK 配置中没有组织 '%v'", orgName)
	}

	if len(org.Users) > 0 && userID != "" {
		i := sort.SearchStrings(org.Users, userID)
		if i >= len(org.Users) || org.Users[i] != userID {
			return nil, fmt.Errorf("组织 '%v' 中没有用户 '%v'", orgName, userID)
		}
	}

	var urls []string
	for _, peerName := range org.Peers {
		if peer, ok := c.Peers[peerName]; ok {
			urls = append(urls, peer.URL)
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("组织 '%v' 没有可用的节点", orgName)
	}

	return urls, nil
}
