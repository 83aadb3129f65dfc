package appinit

import (
	"io/ioutil"
	"time"

	errors "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// DevnetInfo is the Go struct for contents in devnet.yaml.
type DevnetInfo struct {
	Port             int           `yaml:"port"`
	Verifier         string        `yaml:"verifier"`         // The voucher scope the devnet accepts
	PropagationDelay time.Duration `yaml:"propagationDelay"` // Time before the co-validators see a new ACL grant
	RequestFreshness time.Duration `yaml:"requestFreshness"` // Allowed skew of signed requests. 0 disables the check.
	MasterKey        string        `yaml:"masterKey"`        // The path to the SM2 private key sealing the ciphertexts. Generated when empty.
	Validators       []string      `yaml:"validators"`       // Paths to the SM2 private keys (PEM) of the co-validators
	Store            *StoreInfo    `yaml:"store"`
	Log              *LogInfo      `yaml:"log"`
}

// StoreInfo selects the storage of the devnet.
type StoreInfo struct {
	Type        string `yaml:"type"`        // "memory" (default) or "mysql"
	DSN         string `yaml:"dsn"`         // e.g. "user:pass@tcp(127.0.0.1:3306)/devnet?charset=utf8mb4&parseTime=True&loc=Local"
	AutoMigrate bool   `yaml:"autoMigrate"` // Create or update the tables on start
}

// LoadDevnetInfo loads the devnet config file (in YAML).
//
// Parameters:
//   the path to the config file
//
// Returns:
//   the `DevnetInfo` struct containing the info needed to start a devnet
func LoadDevnetInfo(configFilePath string) (ret DevnetInfo, err error) {
	yamlStr, err := ioutil.ReadFile(configFilePath)
	if err != nil {
		err = errors.Wrap(err, "读取开发网络配置文件失败")
		return
	}

	err = yaml.Unmarshal(yamlStr, &ret)
	if err != nil {
		err = errors.Wrap(err, "解析 YAML 文件时出现错误")
		return
	}

	if ret.Port == 0 {
		ret.Port = 8081
	}
	if ret.Store == nil {
		ret.Store = &StoreInfo{}
	}
	if ret.Store.Type == "" {
		ret.Store.Type = "memory"
	}
	if ret.Log == nil {
		ret.Log = &LogInfo{}
	}

	return
}
