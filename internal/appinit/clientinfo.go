package appinit

import (
	"io/ioutil"
	"time"

	errors "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"gitee.com/czyczk/attested-reveal/internal/service"
)

// ClientInfo is the Go struct for contents in client.yaml.
type ClientInfo struct {
	Owner       *OwnerInfo           `yaml:"owner"`
	Gateway     *GatewayInfo         `yaml:"gateway"`
	Ledger      *LedgerInfo          `yaml:"ledger"`
	Session     *SessionInfo         `yaml:"session"`
	Retry       *service.RetryPolicy `yaml:"retry"`
	Attestation *AttestationInfo     `yaml:"attestation"`
	Log         *LogInfo             `yaml:"log"`
}

// OwnerInfo locates the key of the owner on whose behalf the client reveals handles.
type OwnerInfo struct {
	PrivateKey  string `yaml:"privateKey"`  // The path to the SM2 private key (PEM)
	Interactive bool   `yaml:"interactive"` // Ask on the terminal before every signature
}

// GatewayInfo locates the HTTP gateway of the confidential network.
type GatewayInfo struct {
	URL     string        `yaml:"url"`     // e.g. "http://127.0.0.1:8081/api/v1"
	Timeout time.Duration `yaml:"timeout"` // Timeout of a single HTTP request
}

// LedgerInfo selects where handles and ACLs are read from.
type LedgerInfo struct {
	Type   string            `yaml:"type"` // "gateway" (default) or "fabric"
	Fabric *FabricLedgerInfo `yaml:"fabric"`
}

// FabricLedgerInfo is needed when the ledger type is "fabric".
type FabricLedgerInfo struct {
	SDKConfig   string `yaml:"sdkConfig"` // The path to the Fabric SDK config file
	ChannelID   string `yaml:"channelID"`
	OrgName     string `yaml:"orgName"`
	UserID      string `yaml:"userID"`
	ChaincodeID string `yaml:"chaincodeID"`
}

// SessionInfo configures session credentials.
type SessionInfo struct {
	Verifier      string        `yaml:"verifier"`      // The scope the voucher is issued for
	Validity      time.Duration `yaml:"validity"`      // Lifetime of a session credential
	RevokeTimeout time.Duration `yaml:"revokeTimeout"` // Bound of the revocation sent when the signer goes away
}

// AttestationInfo lists the co-validators whose attestations are required.
type AttestationInfo struct {
	Validators []string `yaml:"validators"` // Paths to the SM2 public keys (PEM) of the co-validators
	Threshold  int      `yaml:"threshold"`  // Number of distinct valid attestations required. 0 disables the check.
}

// LoadClientInfo loads the client config file (in YAML) which contains info needed to build a reveal context.
// Sections left out of the file get their defaults.
//
// Parameters:
//   the path to the config file
//
// Returns:
//   the `ClientInfo` struct containing the info needed to build a reveal context
func LoadClientInfo(configFilePath string) (ret ClientInfo, err error) {
	yamlStr, err := ioutil.ReadFile(configFilePath)
	if err != nil {
		err = errors.Wrap(err, "读取客户端配置文件失败")
		return
	}

	err = yaml.Unmarshal(yamlStr, &ret)
	if err != nil {
		err = errors.Wrap(err, "解析 YAML 文件时出现错误")
		return
	}

	ret.fillDefaults()
	return
}

func (info *ClientInfo) fillDefaults() {
	if info.Owner == nil {
		info.Owner = &OwnerInfo{}
	}
	if info.Gateway == nil {
		info.Gateway = &GatewayInfo{}
	}
	if info.Gateway.Timeout <= 0 {
		info.Gateway.Timeout = 10 * time.Second
	}
	if info.Ledger == nil {
		info.Ledger = &LedgerInfo{}
	}
	if info.Ledger.Type == "" {
		info.Ledger.Type = "gateway"
	}
	if info.Session == nil {
		info.Session = &SessionInfo{}
	}
	if info.Session.Validity <= 0 {
		info.Session.Validity = service.DefaultSessionValidity
	}
	if info.Session.RevokeTimeout <= 0 {
		info.Session.RevokeTimeout = service.DefaultRevokeTimeout
	}
	if info.Retry == nil {
		retry := service.DefaultRetryPolicy()
		info.Retry = &retry
	}
	if info.Attestation == nil {
		info.Attestation = &AttestationInfo{}
	}
	if info.Log == nil {
		info.Log = &LogInfo{}
	}
}
