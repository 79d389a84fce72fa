package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient 拉取外部资源用的 HTTP 客户端
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient 创建新的HTTP客户端，timeout 只约束建立连接和响应头
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
			},
		},
		userAgent: "AllDrama-Uploader/1.0",
	}
}

// RemoteFile 远程文件流
type RemoteFile struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64 // 未知时为 -1
}

// Open 发起 GET 请求并返回响应体，调用方负责关闭 Body
func (c *HTTPClient) Open(ctx context.Context, url string) (*RemoteFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("请求失败，状态码: %d", resp.StatusCode)
	}

	return &RemoteFile{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
