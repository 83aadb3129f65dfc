package service

import (
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// RevealPath 表示解密结果经由哪条路径得到
type RevealPath string

const (
	RevealPathLocal   RevealPath = "local"   // 只有零句柄，未访问网络
	RevealPathSession RevealPath = "session" // 会话批量解密
	RevealPathOwner   RevealPath = "owner"   // 所有者逐个解密
	RevealPathNone    RevealPath = "none"    // 无可用凭证
)

// RevealItem 是一个句柄的解密结果。Err 不为 nil 时 Value 无意义。
type RevealItem struct {
	Handle handle.EncryptedHandle
	Value  uint64
	Err    *errorcode.RevealError
}

// RevealResult 与输入的句柄列表等长、同序
type RevealResult struct {
	DomainObjectID string
	Items          []RevealItem
	Path           RevealPath
}

func newRevealResult(domainObjectID string, hs []handle.EncryptedHandle) *RevealResult {
	items := make([]RevealItem, len(hs))
	for i, h := range hs {
		items[i].Handle = h
	}

	return &RevealResult{
		DomainObjectID: domainObjectID,
		Items:          items,
		Path:           RevealPathLocal,
	}
}

// Values returns the plaintexts in input order. Failed slots read as 0.
func (r *RevealResult) Values() []uint64 {
	ret := make([]uint64, len(r.Items))
	for i, item := range r.Items {
		if item.Err == nil {
			ret[i] = item.Value
		}
	}

	return ret
}

// Failures returns the failed slots by position.
func (r *RevealResult) Failures() map[int]*errorcode.RevealError {
	ret := make(map[int]*errorcode.RevealError)
	for i, item := range r.Items {
		if item.Err != nil {
			ret[i] = item.Err
		}
	}

	return ret
}

// OK reports whether every slot was resolved.
func (r *RevealResult) OK() bool {
	for _, item := range r.Items {
		if item.Err != nil {
			return false
		}
	}

	return true
}

func (r *RevealResult) clone() *RevealResult {
	ret := *r
	ret.Items = make([]RevealItem, len(r.Items))
	copy(ret.Items, r.Items)
	return &ret
}

func (r *RevealResult) sameHandles(hs []handle.EncryptedHandle) bool {
	if len(r.Items) != len(hs) {
		return false
	}

	for i, h := range hs {
		if r.Items[i].Handle != h {
			return false
		}
	}

	return true
}
