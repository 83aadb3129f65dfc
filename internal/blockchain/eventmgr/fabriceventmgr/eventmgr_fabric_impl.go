package fabriceventmgr

import (
	"fmt"
	"sync"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/eventmgr"
)

// ChaincodeEventSource is the part of `*channel.Client` the event manager uses.
type ChaincodeEventSource interface {
	RegisterChaincodeEvent(chainCodeID string, eventFilter string) (fab.Registration, <-chan *fab.CCEvent, error)
	UnregisterChaincodeEvent(registration fab.Registration)
}

type FabricEventManager struct {
	source      ChaincodeEventSource
	chaincodeID string

	mapLock     sync.Mutex
	quitChanMap map[eventmgr.IEventRegistration]chan struct{}
}

func NewFabricEventManager(source ChaincodeEventSource, chaincodeID string) *FabricEventManager {
	return &FabricEventManager{
		source:      source,
		chaincodeID: chaincodeID,
		quitChanMap: make(map[eventmgr.IEventRegistration]chan struct{}),
	}
}

func (m *FabricEventManager) RegisterEvent(eventID string) (eventmgr.IEventRegistration, <-chan eventmgr.IEvent, error) {
	// Use Fabric's native channel client to register a chaincode event
	rawReg, rawNotifier, err := m.source.RegisterChaincodeEvent(m.chaincodeID, eventID)
	if err != nil {
		return nil, nil, err
	}

	fabricReg := &FabricEventRegistration{
		reg:     rawReg,
		eventID: eventID,
	}

	notifier := make(chan eventmgr.IEvent)
	quitChan := make(chan struct{})
	// Background task: wrap received Fabric events to `eventmgr.IEvent` objects.
	go func() {
		defer close(notifier)
		for {
			select {
			case event, ok := <-rawNotifier:
				if !ok {
					return
				}

				select {
				case notifier <- (*FabricEvent)(event):
				case <-quitChan:
					return
				}
			case <-quitChan:
				return
			}
		}
	}()

	m.mapLock.Lock()
	defer m.mapLock.Unlock()

	m.quitChanMap[fabricReg] = quitChan

	return fabricReg, notifier, nil
}

func (m *FabricEventManager) UnregisterEvent(reg eventmgr.IEventRegistration) error {
	fabricReg, ok := reg.(*FabricEventRegistration)
	if !ok {
		return fmt.Errorf("不能用 Fabric 事件管理器注销非 Fabric 事件注册")
	}

	m.mapLock.Lock()
	quitChan, ok := m.quitChanMap[fabricReg]
	delete(m.quitChanMap, fabricReg)
	m.mapLock.Unlock()

	if !ok {
		return fmt.Errorf("事件 '%v' 的注册不存在或已注销", fabricReg.eventID)
	}

	// Stop receiving events first, then stop the conversion task
	m.source.UnregisterChaincodeEvent(fabricReg.reg)
	close(quitChan)

	return nil
}

type FabricEventRegistration struct {
	reg     fab.Registration
	eventID string
}

func (r *FabricEventRegistration) GetEventID() string {
	return r.eventID
}

type FabricEvent fab.CCEvent

func (e *FabricEvent) GetEventName() string {
	return e.EventName
}

func (e *FabricEvent) GetPayload() []byte {
	return e.Payload
}

func (e *FabricEvent) GetBlockNumber() uint64 {
	return e.BlockNumber
}

func (e *FabricEvent) GetTxID() string {
	return e.TxID
}
