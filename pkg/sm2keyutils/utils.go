package sm2keyutils

import (
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tjfoc/gmsm/x509"
	"github.com/zeebo/blake3"
)

// PublicKeySize is the length of a serialized public key (X || Y, 32 bytes each).
const PublicKeySize = 64

// AddressSize is the number of digest bytes kept in an address.
const AddressSize = 20

// Convert a PEM formatted private key to an `sm2.PrivateKey` object.
func ConvertPEMToPrivateKey(pemBytes []byte) (*sm2.PrivateKey, error) {
	decodedPrivKeyBlock, _ := pem.Decode(pemBytes)
	if decodedPrivKeyBlock == nil {
		return nil, fmt.Errorf("cannot convert PEM to SM2 private key: no PEM block found")
	}

	parsedPrivKey, err := x509.ParsePKCS8UnecryptedPrivateKey(decodedPrivKeyBlock.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "cannot convert PEM to SM2 private key")
	}

	return parsedPrivKey, nil
}

// Convert an `sm2.PrivateKey` object to PEM formatted bytes.
func ConvertPrivateKeyToPEM(privKey *sm2.PrivateKey) ([]byte, error) {
	privKeyDer, err := x509.MarshalSm2UnecryptedPrivateKey(privKey)
	if err != nil {
		return nil, errors.Wrap(err, "cannot convert private key to PEM")
	}

	privKeyPemBlock := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privKeyDer,
	}

	privKeyPem := pem.EncodeToMemory(&privKeyPemBlock)
	return privKeyPem, nil
}

// Convert a PEM formatted public key to an `sm2.PublicKey` object.
func ConvertPEMToPublicKey(pemBytes []byte) (*sm2.PublicKey, error) {
	decodedPubKeyBlock, _ := pem.Decode(pemBytes)
	if decodedPubKeyBlock == nil {
		return nil, fmt.Errorf("cannot convert PEM to SM2 public key: no PEM block found")
	}

	parsedPubKey, err := x509.ParseSm2PublicKey(decodedPubKeyBlock.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "cannot convert PEM to SM2 public key")
	}

	return parsedPubKey, nil
}

// Convert an `sm2.PublicKey` object to PEM formatted bytes.
func ConvertPublicKeyToPEM(pubKey *sm2.PublicKey) ([]byte, error) {
	pubKeyDer, err := x509.MarshalSm2PublicKey(pubKey)
	if err != nil {
		return nil, errors.Wrap(err, "cannot convert public key to PEM")
	}

	pubKeyPemBlock := pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubKeyDer,
	}

	pubKeyPem := pem.EncodeToMemory(&pubKeyPemBlock)
	return pubKeyPem, nil
}

// Convert two big integers (a point on curve P256Sm2) to an `sm2.PublicKey` object.
func ConvertBigIntegersToPublicKey(x *big.Int, y *big.Int) (*sm2.PublicKey, error) {
	c := sm2.P256Sm2()
	if isOnCurve := c.IsOnCurve(x, y); !isOnCurve {
		return nil, fmt.Errorf("cannot convert big integers to public key because the point is not on curve P256Sm2")
	}

	pub := new(sm2.PublicKey)
	pub.Curve = c
	pub.X = x
	pub.Y = y

	return pub, nil
}

// SerializePublicKey 将一个 SM2 公钥序列化成一个长度为 64 的字节切片（X 与 Y 各 32 字节，左侧补零）。
func SerializePublicKey(publicKey *sm2.PublicKey) []byte {
	ret := make([]byte, PublicKeySize)
	publicKey.X.FillBytes(ret[:32])
	publicKey.Y.FillBytes(ret[32:])
	return ret
}

// DeserializePublicKey 解析一个长度为 64 的字节切片，得到 *sm2.PublicKey。
func DeserializePublicKey(publicKeyBytes []byte) (*sm2.PublicKey, error) {
	if len(publicKeyBytes) != PublicKeySize {
		return nil, fmt.Errorf("公钥字节切片长度不正确，应为 %v 字节，得到 %v 字节", PublicKeySize, len(publicKeyBytes))
	}

	var x, y big.Int
	_ = x.SetBytes(publicKeyBytes[:32])
	_ = y.SetBytes(publicKeyBytes[32:])

	return ConvertBigIntegersToPublicKey(&x, &y)
}

// AddressOf derives the account address of a public key: "0x" followed by the hex of the first
// 20 bytes of BLAKE3(X || Y).
func AddressOf(publicKey *sm2.PublicKey) string {
	digest := blake3.Sum256(SerializePublicKey(publicKey))
	return "0x" + hex.EncodeToString(digest[:AddressSize])
}
