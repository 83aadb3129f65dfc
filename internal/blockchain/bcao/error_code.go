package bcao

import (
	"context"

	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"github.com/pkg/errors"
)

// GetClassifiedError is a general error handler that converts some errors returned from the chaincode or the gateway to the predefined errors.
func GetClassifiedError(fcn string, err error) error {
	if err == nil {
		return nil
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	} else if sentinel := errorcode.FromSuffix(err.Error()); sentinel != nil {
		return sentinel
	} else {
		return errors.Wrapf(err, "无法调用函数 '%v'", fcn)
	}
}
