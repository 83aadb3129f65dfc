package main

import (
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// generatedKey records where the keys of an account were saved.
type generatedKey struct {
	Name    string
	Address string
	SK      string
	PK      string
}

func generateKeys(dirKeys string, accounts []string) ([]generatedKey, error) {
	// Exit if the dir exists
	if _, err := os.Stat(dirKeys); err == nil {
		return nil, fmt.Errorf("the sm2 keys are already generated. Delete the folder first before running again")
	}

	if err := os.MkdirAll(dirKeys, 0755); err != nil {
		return nil, errors.Wrap(err, "cannot create the key folder")
	}

	ret := make([]generatedKey, 0, len(accounts))
	for _, account := range accounts {
		privKey, err := sm2.GenerateKey(rand.Reader)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot generate a private key for '%v'", account)
		}

		// Create a directory for the account
		dirAccount := path.Join(dirKeys, account)
		if err = os.MkdirAll(dirAccount, 0755); err != nil {
			return nil, errors.Wrapf(err, "cannot create the key folder for '%v'", account)
		}

		// Private key
		privKeyPem, err := sm2keyutils.ConvertPrivateKeyToPEM(privKey)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot save the private key for '%v'", account)
		}
		skPath := path.Join(dirAccount, "sk")
		if err = ioutil.WriteFile(skPath, privKeyPem, 0600); err != nil {
			return nil, errors.Wrapf(err, "cannot save the private key for '%v'", account)
		}

		// Public key
		pubKeyPem, err := sm2keyutils.ConvertPublicKeyToPEM(&privKey.PublicKey)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot save the public key for '%v'", account)
		}
		pkPath := path.Join(dirAccount, account+".pem")
		if err = ioutil.WriteFile(pkPath, pubKeyPem, 0644); err != nil {
			return nil, errors.Wrapf(err, "cannot save the public key for '%v'", account)
		}

		ret = append(ret, generatedKey{
			Name:    account,
			Address: sm2keyutils.AddressOf(&privKey.PublicKey),
			SK:      skPath,
			PK:      pkPath,
		})
	}

	return ret, nil
}
