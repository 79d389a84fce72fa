package storage

import (
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/user/alldrama/internal/utils"
)

// PayloadKind 上传内容来源
type PayloadKind int

const (
	// PayloadInline 随请求上传的文件流
	PayloadInline PayloadKind = iota + 1
	// PayloadReference 由服务端按 URL 拉取
	PayloadReference
)

// Payload 上传内容，Inline 和 Reference 二选一
type Payload struct {
	Kind        PayloadKind
	Body        io.Reader // Inline 时由调用方负责关闭
	Size        int64
	URL         string
	ContentType string
}

// InlinePayload 构造内联上传内容，body 直接交给分片上传，不在内存中缓冲
func InlinePayload(body io.Reader, size int64, contentType string) Payload {
	return Payload{Kind: PayloadInline, Body: body, Size: size, ContentType: contentType}
}

// ReferencePayload 构造引用上传内容，contentType 为空时沿用源站响应头
func ReferencePayload(rawURL, contentType string) Payload {
	return Payload{Kind: PayloadReference, URL: rawURL, ContentType: contentType}
}

// Validate 边界校验
func (p Payload) Validate() error {
	switch p.Kind {
	case PayloadInline:
		if p.Body == nil || p.Size <= 0 {
			return utils.ValidationError("No file uploaded")
		}
		if p.ContentType == "" {
			return utils.ValidationError("contentType is required")
		}
	case PayloadReference:
		u, err := url.Parse(p.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return utils.ValidationError("sourceUrl must be an absolute http(s) URL")
		}
	default:
		return utils.ValidationError("unknown upload payload")
	}
	if p.ContentType != "" {
		if _, _, err := mime.ParseMediaType(p.ContentType); err != nil {
			return utils.ValidationError("contentType is invalid")
		}
	}
	return nil
}

// ObjectKey 拼出 title/fileName 形式的对象键。
// title 去掉首尾空白和 /，fileName 只去掉首尾空白且不能包含 /。
func ObjectKey(title, fileName string) (string, error) {
	title = strings.Trim(strings.TrimSpace(title), "/")
	fileName = strings.TrimSpace(fileName)
	if title == "" || fileName == "" {
		return "", utils.ValidationError("title and fileName are required")
	}
	if strings.Contains(fileName, "/") {
		return "", utils.ValidationError("fileName must not contain '/'")
	}
	return title + "/" + fileName, nil
}

// FolderPrefix 规范化为以 / 结尾的前缀
func FolderPrefix(folder string) string {
	folder = strings.TrimSpace(folder)
	if folder == "" || strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}
