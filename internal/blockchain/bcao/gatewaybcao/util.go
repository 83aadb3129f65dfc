package gatewaybcao

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

var (
	handleType = reflect.TypeOf(handle.EncryptedHandle{})
	bytesType  = reflect.TypeOf([]byte(nil))
)

func newHTTPClient(ctx *chaincodectx.GatewayCtx) *http.Client {
	return &http.Client{
		Timeout: ctx.Timeout,
	}
}

// sendRequest performs a call against the gateway and decodes the `ok` part of the response into `out`.
// The gateway answers with
// {
//   "ok": result
// }
// or
// {
//   "err": { "code": "~CODE~", "msg": "message" }
// }
func sendRequest(reqCtx context.Context, ctx *chaincodectx.GatewayCtx, client *http.Client, method, path string, body interface{}, out interface{}) error {
	defer timingutils.GetDeferrableTimingLogger(fmt.Sprintf("%v %v", method, path))()

	endpoint := ctx.APIPrefix + path
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "无法序列化请求参数")
		}
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, bodyReader)
	if err != nil {
		return errors.Wrap(err, "无法创建请求")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := reqCtx.Err(); ctxErr != nil {
			return ctxErr
		}

		log.Debugf("无法访问机密计算网关 %v: %v", endpoint, err)
		return errors.Wrapf(errorcode.ErrorNetworkUnavailable, "无法访问机密计算网关: %v", err)
	}
	defer resp.Body.Close()

	// Process the response.
	// 2xx -> unwrapOk
	// Coded error -> the predefined error
	// 5xx without a code -> the gateway is unavailable
	// Other -> response body as error message
	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(errorcode.ErrorNetworkUnavailable, "无法读取网关响应: %v", err)
	}

	output, parseErr := parseEnvelope(respBodyBytes)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && parseErr == nil {
		okValue, err := unwrapOk(output)
		if err != nil {
			return err
		}

		if out == nil {
			return nil
		}

		return decodeInto(okValue, out)
	}

	if parseErr == nil {
		if code, msg, err := unwrapErr(output); err == nil {
			if sentinel := errorcode.FromCode(code); sentinel != nil {
				log.Debugf("网关返回错误 %v: %v", code, msg)
				return bcao.GetClassifiedError(path, fmt.Errorf("%v %v", msg, code))
			}

			if resp.StatusCode >= 500 {
				return errors.Wrapf(errorcode.ErrorNetworkUnavailable, "网关错误: %v", msg)
			}
			return fmt.Errorf("网关错误: %v", msg)
		}
	}

	if resp.StatusCode >= 500 {
		return errors.Wrapf(errorcode.ErrorNetworkUnavailable, "网关错误 (%v): %v", resp.StatusCode, string(respBodyBytes))
	}
	return fmt.Errorf("网关错误 (%v): %v", resp.StatusCode, string(respBodyBytes))
}

func parseEnvelope(respBody []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(respBody))
	decoder.UseNumber()

	var ret map[string]interface{}
	if err := decoder.Decode(&ret); err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, fmt.Errorf("网关响应为空")
	}

	return ret, nil
}

func unwrapOk(output map[string]interface{}) (interface{}, error) {
	ret, ok := output["ok"]
	if !ok {
		return nil, fmt.Errorf("网关返回值不是 Ok(_) 形式")
	}

	return ret, nil
}

// Returns the code and the message of an Err(_) output
func unwrapErr(output map[string]interface{}) (string, string, error) {
	ret, ok := output["err"]
	if !ok {
		return "", "", fmt.Errorf("网关返回值不是 Err(_) 形式")
	}

	errObj, ok := ret.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("网关返回值 Err(_) 内容不是对象")
	}

	code, _ := errObj["code"].(string)
	msg, _ := errObj["msg"].(string)
	return code, msg, nil
}

// decodeInto decodes a generic JSON value into a typed result. Handles arrive as hex strings, byte slices as
// Base64 strings and numbers as json.Number.
func decodeInto(input interface{}, out interface{}) error {
	// mapstructure flattens hook errors into strings; keep the handle error so it stays classifiable
	var handleErr error
	handleHook := func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		ret, err := decodeHandle(from, to, data)
		if err != nil && handleErr == nil {
			handleErr = err
		}
		return ret, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(handleHook, bytesHook, numberHook),
	})
	if err != nil {
		return errors.Wrap(err, "无法创建解码器")
	}

	if err = decoder.Decode(input); err != nil {
		if handleErr != nil {
			return errors.Wrap(handleErr, "无法解析网关返回值")
		}
		return errors.Wrap(err, "无法解析网关返回值")
	}

	return nil
}

func decodeHandle(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != handleType || from.Kind() != reflect.String {
		return data, nil
	}

	return handle.Parse(reflect.ValueOf(data).String())
}

func bytesHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != bytesType || from.Kind() != reflect.String {
		return data, nil
	}

	return base64.StdEncoding.DecodeString(reflect.ValueOf(data).String())
}

func numberHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(n.String(), 10, to.Bits())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(n.String(), 10, to.Bits())
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	default:
		return data, nil
	}
}
