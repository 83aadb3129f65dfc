package blockchain

// BCType names a backend the ledger adapter can talk to.
type BCType string

const (
	// Fabric reads handles and ACLs through chaincode on a Hyperledger Fabric channel.
	Fabric BCType = "fabric"
	// Gateway reads handles and ACLs through the HTTP gateway of the confidential network.
	Gateway BCType = "gateway"
)

// ParseBCType converts a config value to a BCType. Unknown values yield "".
func ParseBCType(s string) BCType {
	switch BCType(s) {
	case Fabric:
		return Fabric
	case Gateway:
		return Gateway
	default:
		return ""
	}
}
