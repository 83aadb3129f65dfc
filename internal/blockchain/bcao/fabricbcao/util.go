package fabricbcao

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
)

// requestOptions carries the deadline of `ctx` over to the channel client, which has no notion of contexts.
func requestOptions(ctx context.Context, timeoutType fab.TimeoutType) []channel.RequestOption {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}

	return []channel.RequestOption{channel.WithTimeout(timeoutType, time.Until(deadline))}
}

func queryChannelRequestWithTimer(ctx context.Context, channelClient chaincodectx.ChannelClient, channelRequest *channel.Request, timerMsg string) (resp channel.Response, err error) {
	defer timingutils.GetDeferrableTimingLogger(timerMsg)()

	if err = ctx.Err(); err != nil {
		return
	}

	resp, err = channelClient.Query(*channelRequest, requestOptions(ctx, fab.Query)...)
	return
}

func executeChannelRequestWithTimer(ctx context.Context, channelClient chaincodectx.ChannelClient, channelRequest *channel.Request, timerMsg string) (resp channel.Response, err error) {
	defer timingutils.GetDeferrableTimingLogger(timerMsg)()

	if err = ctx.Err(); err != nil {
		return
	}

	resp, err = channelClient.Execute(*channelRequest, requestOptions(ctx, fab.Execute)...)
	return
}
