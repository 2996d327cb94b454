// internal/service/checkout/infrastructure/adapter/flow_lock_zk.go
package adapter

import (
	"context"
	"fmt"

	"storefront/internal/pkg/zookeeper"
)

// FlowLockZkAdapter 用 ZooKeeper 分布式锁实现 port.FlowLocker。
type FlowLockZkAdapter struct {
	conn *zookeeper.Conn
}

func NewFlowLockZkAdapter(conn *zookeeper.Conn) *FlowLockZkAdapter {
	return &FlowLockZkAdapter{conn: conn}
}

func (a *FlowLockZkAdapter) Lock(ctx context.Context, flowID string) (func() error, error) {
	lock, err := zookeeper.NewDistributedLock(a.conn, "flow_"+flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock for flow %s: %w", flowID, err)
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return lock.Unlock, nil
}
