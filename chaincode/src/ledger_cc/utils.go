package main

import (
	"fmt"
	"strings"
)

const (
	// Slot 对应“句柄槽位”的 key 的前缀
	Slot = "slot"
	// ACL 对应“解密授权”的 key 的前缀
	ACL = "acl"
)

func getKeyForSlot(name string) string {
	return fmt.Sprintf("slot_%s", name)
}

func getKeyForACL(handle string, grantee string) string {
	return fmt.Sprintf("acl_%s_%s", handle, strings.ToLower(grantee))
}
