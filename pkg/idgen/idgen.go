// Package idgen 提供基于雪花算法的业务 ID 生成
package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	once sync.Once
	node *snowflake.Node
)

// Init 以指定节点号初始化生成器，未调用时默认节点 1
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

func getNode() *snowflake.Node {
	once.Do(func() {
		node, _ = snowflake.NewNode(1)
	})
	return node
}

// GenID 生成一个全局唯一的数值 ID
func GenID() int64 {
	return getNode().Generate().Int64()
}

// NewID 生成带业务前缀的字符串 ID，如 TXN-1234567890
func NewID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, GenID())
}
