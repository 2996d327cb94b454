// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"context"
	"sort"
	"strings"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const lockRoot = "/checkout_locks"

// DistributedLock 基于临时顺序节点实现的公平互斥锁。
type DistributedLock struct {
	conn     *Conn
	path     string // 例如 /checkout_locks/flow-default
	lockNode string // 获取锁后自己创建的节点
}

// NewDistributedLock 为某个资源创建锁对象，会确保父节点存在。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := conn.ensurePath(lockRoot); err != nil {
		return nil, errors.Wrap(err, "failed to create lock root node")
	}
	lockPath := lockRoot + "/" + resourceID
	if err := conn.ensurePath(lockPath); err != nil {
		return nil, errors.Wrapf(err, "failed to create lock path node %s", lockPath)
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

// Lock 获取锁，拿不到时监听前一个节点直到它被删除或 ctx 结束。
func (l *DistributedLock) Lock(ctx context.Context) error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return errors.Wrap(err, "failed to create sequential node")
	}
	l.lockNode = nodePath
	myNode := strings.TrimPrefix(l.lockNode, l.path+"/")

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			l.release()
			return errors.Wrap(err, "failed to list lock nodes")
		}
		// 受保护节点带有 GUID 前缀，按序号部分排序
		sort.Slice(children, func(i, j int) bool { return sequence(children[i]) < sequence(children[j]) })

		idx := -1
		for i, child := range children {
			if child == myNode {
				idx = i
				break
			}
		}
		if idx < 0 {
			l.lockNode = ""
			return errors.New("lock node disappeared while waiting")
		}
		if idx == 0 {
			return nil
		}

		exists, _, events, err := l.conn.ExistsW(l.path + "/" + children[idx-1])
		if err != nil {
			l.release()
			return errors.Wrap(err, "failed to watch previous node")
		}
		if !exists {
			continue
		}

		select {
		case <-events:
		case <-ctx.Done():
			l.release()
			return ctx.Err()
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && !errors.Is(err, zk.ErrNoNode) {
		return errors.Wrap(err, "failed to delete lock node")
	}
	l.lockNode = ""
	return nil
}

func (l *DistributedLock) release() {
	if l.lockNode != "" {
		_ = l.conn.Delete(l.lockNode, -1)
		l.lockNode = ""
	}
}

func sequence(node string) string {
	if i := strings.LastIndex(node, "lock-"); i >= 0 {
		return node[i+len("lock-"):]
	}
	return node
}
