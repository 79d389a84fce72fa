package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"github.com/user/alldrama/internal/config"
	"github.com/user/alldrama/internal/logger"
	"github.com/user/alldrama/internal/utils"
	"golang.org/x/sync/errgroup"
)

// ObjectAPI 网关用到的 S3 对象操作
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

const msgTooLarge = "source file is too large"

// errTooLarge 读取超过上限时中断上传
var errTooLarge = errors.New("upload exceeds size limit")

// capReader 最多放行 limit 字节，超出后返回 errTooLarge
type capReader struct {
	r        io.Reader
	limit    int64
	n        int64
	exceeded bool
}

func newCapReader(r io.Reader, limit int64) *capReader {
	return &capReader{r: io.LimitReader(r, limit+1), limit: limit}
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.limit {
		c.exceeded = true
		return n, errTooLarge
	}
	return n, err
}

// Presigner 预签名
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Uploader 服务端上传（分片由 manager 处理）
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Fetcher 拉取引用类型的上传内容
type Fetcher interface {
	Open(ctx context.Context, url string) (*utils.RemoteFile, error)
}

// Options 网关参数
type Options struct {
	Bucket            string
	PublicBaseURL     string        // 对象公开访问地址前缀，如 https://cdn.example.com
	PresignTTL        time.Duration // 预签名有效期
	BaseTimeout       time.Duration // 上传超时基数
	MinThroughput     int64         // 上传最低吞吐 bytes/s，用于按大小放宽超时
	MaxObjectBytes    int64         // 单个对象上限，大小未知时按此估算超时
	DeleteConcurrency int
}

// Gateway 单 bucket 的对象存储网关
type Gateway struct {
	objects   ObjectAPI
	presigner Presigner
	uploader  Uploader
	fetcher   Fetcher
	opts      Options
	log       *logrus.Entry
}

// UploadTicket 预签名上传结果
type UploadTicket struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	FinalURL  string    `json:"finalUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewGateway 用已有客户端构造网关
func NewGateway(objects ObjectAPI, presigner Presigner, uploader Uploader, fetcher Fetcher, opts Options) *Gateway {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = time.Hour
	}
	if opts.BaseTimeout <= 0 {
		opts.BaseTimeout = 30 * time.Second
	}
	if opts.DeleteConcurrency <= 0 {
		opts.DeleteConcurrency = 8
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Gateway{
		objects:   objects,
		presigner: presigner,
		uploader:  uploader,
		fetcher:   fetcher,
		opts:      opts,
		log:       logger.Component("storage"),
	}
}

// NewS3Gateway 根据配置创建 S3 客户端，Endpoint 非空时按 S3 兼容存储（R2、MinIO）处理
func NewS3Gateway(ctx context.Context, cfg config.StorageConfig, maxObjectBytes int64) (*Gateway, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is not set")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = cfg.MaxAttempts
			})
		}),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 16 * 1024 * 1024
		u.Concurrency = 4
	})

	publicBase := ""
	switch {
	case cfg.CDNDomain != "":
		publicBase = "https://" + strings.TrimPrefix(strings.TrimPrefix(cfg.CDNDomain, "https://"), "http://")
	case endpoint != "":
		publicBase = endpoint + "/" + cfg.Bucket
	default:
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return NewGateway(client, s3.NewPresignClient(client), uploader, utils.NewHTTPClient(cfg.BaseTimeout), Options{
		Bucket:         cfg.Bucket,
		PublicBaseURL:  publicBase,
		PresignTTL:     cfg.PresignTTL,
		BaseTimeout:    cfg.BaseTimeout,
		MinThroughput:  cfg.MinThroughput,
		MaxObjectBytes: maxObjectBytes,
	}), nil
}

// PublicURL 对象上传完成后的公开地址
func (g *Gateway) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return g.opts.PublicBaseURL + "/" + strings.Join(segments, "/")
}

// UploadTimeout 按大小计算上传超时：base + size/minThroughput
func (g *Gateway) UploadTimeout(size int64) time.Duration {
	if size < 0 {
		size = g.opts.MaxObjectBytes
	}
	timeout := g.opts.BaseTimeout
	if g.opts.MinThroughput > 0 && size > 0 {
		timeout += time.Duration(size/g.opts.MinThroughput+1) * time.Second
	}
	return timeout
}

// IssueUploadURL 生成预签名 PUT 地址，客户端直接上传到存储
func (g *Gateway) IssueUploadURL(ctx context.Context, title, fileName, contentType string) (*UploadTicket, error) {
	key, err := ObjectKey(title, fileName)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		return nil, utils.ValidationError("title, fileName, and contentType are required")
	}

	req, err := g.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.opts.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) {
		o.Expires = g.opts.PresignTTL
	})
	if err != nil {
		return nil, utils.UpstreamError("Failed to generate upload URL", err)
	}

	return &UploadTicket{
		Key:       key,
		UploadURL: req.URL,
		FinalURL:  g.PublicURL(key),
		ExpiresAt: time.Now().Add(g.opts.PresignTTL),
	}, nil
}

// Upload 服务端上传，成功返回公开地址
func (g *Gateway) Upload(ctx context.Context, title, fileName string, p Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	key, err := ObjectKey(title, fileName)
	if err != nil {
		return "", err
	}

	var (
		body        io.Reader
		size        int64
		contentType = p.ContentType
	)
	switch p.Kind {
	case PayloadInline:
		body = p.Body
		size = p.Size
	case PayloadReference:
		remote, err := g.fetcher.Open(ctx, p.URL)
		if err != nil {
			return "", utils.UpstreamError("Failed to fetch source file", err)
		}
		defer remote.Body.Close()
		body = remote.Body
		size = remote.ContentLength
		if contentType == "" {
			contentType = remote.ContentType
		}
		if contentType == "" {
			return "", utils.ValidationError("contentType is required")
		}
	}

	// 声明的大小可能缺失（chunked）或不实，实际读取的字节数同样受限
	var capped *capReader
	if g.opts.MaxObjectBytes > 0 {
		if size > g.opts.MaxObjectBytes {
			return "", utils.ValidationError(msgTooLarge)
		}
		capped = newCapReader(body, g.opts.MaxObjectBytes)
		body = capped
	}

	timeout := g.UploadTimeout(size)
	uploadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err = g.uploader.Upload(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(g.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if capped != nil && capped.exceeded {
		return "", utils.ValidationError(msgTooLarge)
	}
	if err != nil {
		return "", utils.UpstreamError("Failed to upload file", err)
	}

	g.log.WithFields(logrus.Fields{"key": key, "size": size, "timeout": timeout}).Info("文件上传成功")
	return g.PublicURL(key), nil
}

// Delete 删除单个对象，或在 isPrefix 时删除前缀下全部对象，返回实际删除的对象数。
// 单个删除先 HeadObject，键不存在时返回 0（DeleteObject 对不存在的键同样返回成功）。
func (g *Gateway) Delete(ctx context.Context, key string, isPrefix bool) (int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, utils.ValidationError("fileKey is required")
	}

	if !isPrefix {
		if strings.HasSuffix(key, "/") {
			return 0, utils.ValidationError("fileKey ends with '/', set isPrefix to delete a folder")
		}
		exists, err := g.objectExists(ctx, key)
		if err != nil {
			return 0, utils.UpstreamError("Failed to delete file from S3", err)
		}
		if !exists {
			g.log.WithField("key", key).Info("文件不存在，跳过删除")
			return 0, nil
		}
		if err := g.deleteObject(ctx, key); err != nil {
			return 0, utils.UpstreamError("Failed to delete file from S3", err)
		}
		g.log.WithField("key", key).Info("文件已删除")
		return 1, nil
	}

	prefix := FolderPrefix(key)
	if strings.Trim(prefix, "/") == "" {
		return 0, utils.ValidationError("folder prefix must not be empty")
	}
	keys, err := g.listKeys(ctx, prefix)
	if err != nil {
		return 0, utils.UpstreamError("Failed to delete file from S3", err)
	}
	if len(keys) == 0 {
		g.log.WithField("prefix", prefix).Info("目录下没有对象")
		return 0, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.DeleteConcurrency)
	for _, k := range keys {
		eg.Go(func() error {
			return g.deleteObject(egCtx, k)
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, utils.UpstreamError("Failed to delete file from S3", err)
	}

	g.log.WithFields(logrus.Fields{"prefix": prefix, "count": len(keys)}).Info("目录已删除")
	return len(keys), nil
}

// ListAll 列出 bucket 内全部对象键
func (g *Gateway) ListAll(ctx context.Context) ([]string, error) {
	keys, err := g.listKeys(ctx, "")
	if err != nil {
		return nil, utils.UpstreamError("Failed to list files", err)
	}
	return keys, nil
}

// ListByFolder 列出目录下全部对象键
func (g *Gateway) ListByFolder(ctx context.Context, folder string) ([]string, error) {
	prefix := FolderPrefix(folder)
	if strings.Trim(prefix, "/") == "" {
		return nil, utils.ValidationError("folder is required")
	}
	keys, err := g.listKeys(ctx, prefix)
	if err != nil {
		return nil, utils.UpstreamError("Failed to list files in folder", err)
	}
	return keys, nil
}

func (g *Gateway) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := g.objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.opts.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

func (g *Gateway) deleteObject(ctx context.Context, key string) error {
	_, err := g.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// listKeys 翻页直到取完，单次 ListObjectsV2 最多返回 1000 条
func (g *Gateway) listKeys(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(g.opts.Bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(g.objects, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}
