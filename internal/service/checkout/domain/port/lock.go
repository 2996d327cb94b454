package port

import "context"

// FlowLocker 保证同一时刻只有一个管理员在修改某个流程。
type FlowLocker interface {
	// Lock 阻塞直到获得锁或 ctx 结束，返回的 unlock 必须被调用。
	Lock(ctx context.Context, flowID string) (unlock func() error, err error)
}
