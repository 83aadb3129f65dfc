package fabriceventmgr

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/eventmgr"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

type fakeEventSource struct {
	events       chan *fab.CCEvent
	unregistered int
}

func (s *fakeEventSource) RegisterChaincodeEvent(chainCodeID string, eventFilter string) (fab.Registration, <-chan *fab.CCEvent, error) {
	return eventFilter, s.events, nil
}

func (s *fakeEventSource) UnregisterChaincodeEvent(registration fab.Registration) {
	s.unregistered++
}

func TestGrantWatch(t *testing.T) {
	source := &fakeEventSource{events: make(chan *fab.CCEvent, 2)}
	mgr := NewFabricEventManager(source, "ledgercc")

	watch, err := eventmgr.WatchGrants(mgr)
	require.NoError(t, err)

	var h handle.EncryptedHandle
	h[31] = 9
	source.events <- &fab.CCEvent{EventName: confidential.GrantEventName, Payload: []byte(confidential.GrantEventPayload(h, "0xother")), BlockNumber: 3}
	source.events <- &fab.CCEvent{EventName: confidential.GrantEventName, Payload: []byte(confidential.GrantEventPayload(h, "0xBOB")), BlockNumber: 4, TxID: "tx4"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event, err := watch.Wait(ctx, h, "0xbob")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), event.GetBlockNumber())
	assert.Equal(t, "tx4", event.GetTxID())

	require.NoError(t, watch.Close())
	assert.Equal(t, 1, source.unregistered)
	assert.Error(t, watch.Close())
}

func TestGrantWatchHonorsContext(t *testing.T) {
	source := &fakeEventSource{events: make(chan *fab.CCEvent)}
	mgr := NewFabricEventManager(source, "ledgercc")

	watch, err := eventmgr.WatchGrants(mgr)
	require.NoError(t, err)
	defer watch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = watch.Wait(ctx, handle.ZeroHandle, "0xbob")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
