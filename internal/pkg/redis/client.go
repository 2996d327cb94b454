// internal/pkg/redis/client.go
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 的 UniversalClient，单节点和集群使用同一套接口。
type Client struct {
	client goredis.UniversalClient
}

// NewClient 根据逗号分隔的地址列表创建客户端，并立即 Ping 一次。
func NewClient(addrs, password string) (*Client, error) {
	c := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        strings.Split(addrs, ","),
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addrs)
	}
	return &Client{client: c}, nil
}

// GetClient 暴露底层客户端，供适配器直接使用。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}
