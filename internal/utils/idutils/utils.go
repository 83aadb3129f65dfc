package idutils

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

var (
	sfNode     *snowflake.Node
	sfNodeErr  error
	sfNodeOnce sync.Once
)

// NodeID is the snowflake node number of this process. It must be set before the first ID is generated.
var NodeID int64 = 1

func GenerateSnowflakeId() (string, error) {
	sfNodeOnce.Do(func() {
		sfNode, sfNodeErr = snowflake.NewNode(NodeID)
	})
	if sfNodeErr != nil {
		return "", errors.Wrap(sfNodeErr, "无法生成 ID")
	}

	id := sfNode.Generate().String()
	return id, nil
}
