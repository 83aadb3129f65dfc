package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"gitee.com/czyczk/attested-reveal/internal/devnet"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// A ConfidentialController exposes the confidential API of a devnet. It implements the interface `Controller`.
type ConfidentialController struct {
	GroupName string
	Network   *devnet.Network
}

// GetGroupName returns the group name.
func (cc *ConfidentialController) GetGroupName() string {
	return cc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by ConfidentialController.
func (cc *ConfidentialController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/confidential/encrypt", "POST"}: []gin.HandlerFunc{cc.handleEncrypt},
		urlMethodPair{"/confidential/:handle", "GET"}:  []gin.HandlerFunc{cc.handleGetCiphertextInfo},
		urlMethodPair{"/decrypt/owner", "POST"}:        []gin.HandlerFunc{cc.handleDecryptWithOwner},
		urlMethodPair{"/decrypt/session", "POST"}:      []gin.HandlerFunc{cc.handleDecryptWithSession},
		urlMethodPair{"/session/voucher", "POST"}:      []gin.HandlerFunc{cc.handleGrantSessionVoucher},
		urlMethodPair{"/session/nonce/bump", "POST"}:   []gin.HandlerFunc{cc.handleBumpSessionNonce},
		urlMethodPair{"/network/validators", "GET"}:    []gin.HandlerFunc{cc.handleListValidators},
	}
}

// bindJSON decodes the request body into `v`. Malformed bodies are reported as bad requests.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, errors.Wrap(errorcode.ErrorBadRequest, "无法解析请求体: "+err.Error()))
		return false
	}

	return true
}

func (cc *ConfidentialController) handleEncrypt(c *gin.Context) {
	var req confidential.EncryptRequest
	if !bindJSON(c, &req) {
		return
	}

	// Validity check
	pel := &ParameterErrorList{}
	req.Owner = pel.AppendIfEmptyOrBlankSpaces(req.Owner, "所有者地址不能为空。")
	if len(*pel) > 0 {
		respondParameterErrors(c, *pel)
		return
	}

	h, err := cc.Network.Encrypt(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	info, err := cc.Network.GetCiphertextInfo(c.Request.Context(), h)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, info)
}

func (cc *ConfidentialController) handleGetCiphertextInfo(c *gin.Context) {
	pel := &ParameterErrorList{}
	h := pel.AppendIfNotHandle(c.Param("handle"), "句柄格式不正确。")
	if len(*pel) > 0 {
		respondParameterErrors(c, *pel)
		return
	}

	info, err := cc.Network.GetCiphertextInfo(c.Request.Context(), h)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, info)
}

func (cc *ConfidentialController) handleDecryptWithOwner(c *gin.Context) {
	var req confidential.Signed
	if !bindJSON(c, &req) {
		return
	}

	results, err := cc.Network.DecryptWithOwner(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, results)
}

func (cc *ConfidentialController) handleDecryptWithSession(c *gin.Context) {
	var call confidential.SessionDecryptCall
	if !bindJSON(c, &call) {
		return
	}

	results, err := cc.Network.DecryptWithSession(c.Request.Context(), &call.Grant, &call.Request)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, results)
}

func (cc *ConfidentialController) handleGrantSessionVoucher(c *gin.Context) {
	var req confidential.Signed
	if !bindJSON(c, &req) {
		return
	}

	voucher, err := cc.Network.GrantSessionVoucher(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, voucher)
}

func (cc *ConfidentialController) handleBumpSessionNonce(c *gin.Context) {
	var call confidential.NonceBumpCall
	if !bindJSON(c, &call) {
		return
	}

	receipt, err := cc.Network.BumpSessionNonce(c.Request.Context(), &call.Grant, &call.Request)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOk(c, receipt)
}

// ValidatorInfo 为一名协同验证者的公开信息
type ValidatorInfo struct {
	Address   string `json:"address"`   // 验证者地址
	PublicKey []byte `json:"publicKey"` // 验证者公钥（[64]byte，X || Y）
}

func (cc *ConfidentialController) handleListValidators(c *gin.Context) {
	keys := cc.Network.ValidatorPublicKeys()
	ret := make([]ValidatorInfo, 0, len(keys))
	for _, pk := range keys {
		ret = append(ret, ValidatorInfo{
			Address:   sm2keyutils.AddressOf(pk),
			PublicKey: sm2keyutils.SerializePublicKey(pk),
		})
	}

	respondOk(c, gin.H{"verifier": cc.Network.Verifier(), "validators": ret})
}
