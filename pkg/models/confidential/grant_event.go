package confidential

import (
	"strings"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// GrantEventName is the name of the chaincode event emitted when a decryption grant is committed.
const GrantEventName = "allowDecrypt"

// GrantEventPayload is the payload of the grant event of `h` for `grantee`.
func GrantEventPayload(h handle.EncryptedHandle, grantee string) string {
	return h.String() + ":" + strings.ToLower(strings.TrimSpace(grantee))
}
