package controller

import (
	"github.com/gin-gonic/gin"

	"gitee.com/czyczk/attested-reveal/internal/devnet"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// A LedgerController exposes the handle slots and the ACL of a devnet. It implements the interface `Controller`.
type LedgerController struct {
	GroupName string
	Network   *devnet.Network
}

// SlotInfo 为一个状态槽及其中存放的句柄
type SlotInfo struct {
	Name   string                 `json:"name"`   // 状态槽名称
	Handle handle.EncryptedHandle `json:"handle"` // 句柄，未赋值时为零句柄
}

// GetGroupName returns the group name.
func (lc *LedgerController) GetGroupName() string {
	return lc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by LedgerController.
func (lc *LedgerController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/ledger/slot", "GET"}:           []gin.HandlerFunc{lc.handleGetSlot},
		urlMethodPair{"/ledger/slot", "POST"}:          []gin.HandlerFunc{lc.handlePutSlot},
		urlMethodPair{"/acl/:handle/:address", "GET"}: []gin.HandlerFunc{lc.handleCheckDecryptAccess},
		urlMethodPair{"/acl/grant", "POST"}:            []gin.HandlerFunc{lc.handleGrantAccess},
	}
}

func (lc *LedgerController) handleGetSlot(c *gin.Context) {
	pel := &ParameterErrorList{}
	name := pel.AppendIfEmptyOrBlankSpaces(c.Query("name"), "状态槽名称不能为空。")
	if len(*pel) > 0 {
		respondParameterErrors(c, *pel)
		return
	}

	h, err := lc.Network.GetHandle(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, &SlotInfo{Name: name, Handle: h})
}

func (lc *LedgerController) handlePutSlot(c *gin.Context) {
	var req SlotInfo
	if !bindJSON(c, &req) {
		return
	}

	pel := &ParameterErrorList{}
	req.Name = pel.AppendIfEmptyOrBlankSpaces(req.Name, "状态槽名称不能为空。")
	if len(*pel) > 0 {
		respondParameterErrors(c, *pel)
		return
	}

	txInfo, err := lc.Network.PutHandle(c.Request.Context(), req.Name, req.Handle)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, txInfo)
}

func (lc *LedgerController) handleCheckDecryptAccess(c *gin.Context) {
	pel := &ParameterErrorList{}
	h := pel.AppendIfNotHandle(c.Param("handle"), "句柄格式不正确。")
	address := pel.AppendIfEmptyOrBlankSpaces(c.Param("address"), "地址不能为空。")
	if len(*pel) > 0 {
		respondParameterErrors(c, *pel)
		return
	}

	allowed, err := lc.Network.CheckDecryptAccess(c.Request.Context(), h, address)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, allowed)
}

func (lc *LedgerController) handleGrantAccess(c *gin.Context) {
	var req confidential.GrantAccessRequest
	if !bindJSON(c, &req) {
		return
	}

	pel := &ParameterErrorList{}
	pel.AppendIfZeroHandle(req.Handle, "不能对零句柄授权。")
	req.Grantee = pel.AppendIfEmptyOrBlankSpaces(req.Grantee, "被授权者地址不能为空。")
	if len(*pel) > 0 {
		respondParameterErrors(c, *pel)
		return
	}

	txInfo, err := lc.Network.GrantAccess(c.Request.Context(), req.Handle, req.Grantee)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, txInfo)
}
