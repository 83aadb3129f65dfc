package appinit

import (
	"io/ioutil"

	errors "github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// LoadSM2PrivateKey loads an SM2 private key from a PEM file.
func LoadSM2PrivateKey(path string) (*sm2.PrivateKey, error) {
	privKeyPem, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "无法读取 SM2 私钥 '%v'", path)
	}

	privKey, err := sm2keyutils.ConvertPEMToPrivateKey(privKeyPem)
	if err != nil {
		return nil, errors.Wrapf(err, "无法解析 SM2 私钥 '%v'", path)
	}

	return privKey, nil
}

// LoadSM2PublicKey loads an SM2 public key from a PEM file.
func LoadSM2PublicKey(path string) (*sm2.PublicKey, error) {
	pubKeyPem, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "无法读取 SM2 公钥 '%v'", path)
	}

	pubKey, err := sm2keyutils.ConvertPEMToPublicKey(pubKeyPem)
	if err != nil {
		return nil, errors.Wrapf(err, "无法解析 SM2 公钥 '%v'", path)
	}

	return pubKey, nil
}

// LoadSM2PrivateKeys loads one private key per path, in order.
func LoadSM2PrivateKeys(paths []string) ([]*sm2.PrivateKey, error) {
	keys := make([]*sm2.PrivateKey, 0, len(paths))
	for _, path := range paths {
		key, err := LoadSM2PrivateKey(path)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// LoadSM2PublicKeys loads one public key per path, in order.
func LoadSM2PublicKeys(paths []string) ([]*sm2.PublicKey, error) {
	keys := make([]*sm2.PublicKey, 0, len(paths))
	for _, path := range paths {
		key, err := LoadSM2PublicKey(path)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, nil
}
