// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

// Conn 是 zk.Conn 的薄封装。
type Conn struct {
	*zk.Conn
}

// Connect 连接到逗号分隔的 ZooKeeper 集群地址。
func Connect(servers string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(strings.Split(servers, ","), sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to zookeeper at %s", servers)
	}
	zlog.Info().Str("servers", servers).Msg("Connected to ZooKeeper.")
	return &Conn{Conn: conn}, nil
}

// ensurePath 创建持久节点，已存在时忽略。
func (c *Conn) ensurePath(path string) error {
	exists, _, err := c.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = c.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return err
	}
	return nil
}
