package eventmgr

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// GrantWatch listens to the committed decryption grants of the ledger chaincode.
// It must be opened before the grant is submitted, otherwise the event may be missed.
type GrantWatch struct {
	mgr    IEventManager
	reg    IEventRegistration
	events <-chan IEvent
}

// WatchGrants starts listening to grant events.
func WatchGrants(mgr IEventManager) (*GrantWatch, error) {
	reg, events, err := mgr.RegisterEvent(confidential.GrantEventName)
	if err != nil {
		return nil, err
	}

	return &GrantWatch{mgr: mgr, reg: reg, events: events}, nil
}

// Wait blocks until the grant of `h` to `grantee` is committed and returns the event.
func (w *GrantWatch) Wait(ctx context.Context, h handle.EncryptedHandle, grantee string) (IEvent, error) {
	expected := confidential.GrantEventPayload(h, grantee)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-w.events:
			if !ok {
				return nil, fmt.Errorf("授权事件监听已结束")
			}

			if string(event.GetPayload()) == expected {
				log.Debugf("句柄 %v 对 %v 的授权已在区块 %v 中提交", h.Short(), grantee, event.GetBlockNumber())
				return event, nil
			}
		}
	}
}

// Close stops listening.
func (w *GrantWatch) Close() error {
	return w.mgr.UnregisterEvent(w.reg)
}
