package main

import (
	"io/ioutil"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

func TestGenerateKeys(t *testing.T) {
	dirKeys := path.Join(t.TempDir(), "sm2keys")

	keys, err := generateKeys(dirKeys, []string{"owner", "validator0"})
	require.NoError(t, err)
	require.Len(t, keys, 2)

	for _, key := range keys {
		skPem, err := ioutil.ReadFile(key.SK)
		require.NoError(t, err)
		privKey, err := sm2keyutils.ConvertPEMToPrivateKey(skPem)
		require.NoError(t, err)

		pkPem, err := ioutil.ReadFile(key.PK)
		require.NoError(t, err)
		pubKey, err := sm2keyutils.ConvertPEMToPublicKey(pkPem)
		require.NoError(t, err)

		assert.Equal(t, key.Address, sm2keyutils.AddressOf(&privKey.PublicKey))
		assert.Equal(t, key.Address, sm2keyutils.AddressOf(pubKey))
	}

	// A second run must not overwrite existing keys
	_, err = generateKeys(dirKeys, []string{"owner"})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	filePath := path.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, ioutil.WriteFile(filePath, []byte("- owner\n- master\n"), 0644))

	accounts, err := loadConfig(filePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "master"}, accounts)

	require.NoError(t, ioutil.WriteFile(filePath, []byte("[]"), 0644))
	_, err = loadConfig(filePath)
	assert.Error(t, err)
}
