package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/alldrama/internal/utils"
)

// fakeBucket 内存版 bucket，ListObjectsV2 每页 pageSize 条以覆盖翻页
type fakeBucket struct {
	mu        sync.Mutex
	objects   map[string]string
	pageSize  int
	listCalls int
	failOn    string
	uploads   []*s3.PutObjectInput
	bodies    map[string]string
	presigned *s3.PutObjectInput
	expires   time.Duration
}

func newFakeBucket(keys ...string) *fakeBucket {
	b := &fakeBucket{objects: map[string]string{}, pageSize: 2, bodies: map[string]string{}}
	for _, k := range keys {
		b.objects[k] = "x"
	}
	return b
}

func (b *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++

	prefix := aws.ToString(in.Prefix)
	start := aws.ToString(in.ContinuationToken)
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) && k > start {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if len(keys) > b.pageSize {
		keys = keys[:b.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (b *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := aws.ToString(in.Key)
	if key == b.failOn {
		return nil, errors.New("access denied")
	}
	delete(b.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (b *fakeBucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (b *fakeBucket) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	b.presigned = in
	b.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://bucket.example.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc",
		Method: http.MethodPut,
	}, nil
}

func (b *fakeBucket) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("upload without deadline")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, in)
	b.objects[aws.ToString(in.Key)] = string(data)
	b.bodies[aws.ToString(in.Key)] = string(data)
	return &manager.UploadOutput{Key: in.Key}, nil
}

// fakeFetcher chunked 为 true 时模拟没有 Content-Length 的响应
type fakeFetcher struct {
	body        string
	contentType string
	chunked     bool
	err         error
}

func (f *fakeFetcher) Open(_ context.Context, _ string) (*utils.RemoteFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	length := int64(len(f.body))
	if f.chunked {
		length = -1
	}
	return &utils.RemoteFile{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentType:   f.contentType,
		ContentLength: length,
	}, nil
}

func newTestGateway(b *fakeBucket, f Fetcher) *Gateway {
	return NewGateway(b, b, b, f, Options{
		Bucket:        "media",
		PublicBaseURL: "https://cdn.example.com/",
		BaseTimeout:   time.Second,
		MinThroughput: 1024,
	})
}

func TestIssueUploadURL(t *testing.T) {
	b := newFakeBucket()
	g := newTestGateway(b, nil)

	ticket, err := g.IssueUploadURL(context.Background(), "Spirited Away", "ep1.mp4", "video/mp4")
	require.NoError(t, err)

	assert.Equal(t, "Spirited Away/ep1.mp4", ticket.Key)
	assert.Equal(t, "https://cdn.example.com/Spirited%20Away/ep1.mp4", ticket.FinalURL)
	assert.Contains(t, ticket.UploadURL, "X-Amz-Signature")
	assert.Equal(t, time.Hour, b.expires)
	assert.Equal(t, "video/mp4", aws.ToString(b.presigned.ContentType))
}

func TestIssueUploadURL_MissingFields(t *testing.T) {
	g := newTestGateway(newFakeBucket(), nil)

	_, err := g.IssueUploadURL(context.Background(), "", "ep1.mp4", "video/mp4")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = g.IssueUploadURL(context.Background(), "title", "ep1.mp4", "")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestUpload_Inline(t *testing.T) {
	b := newFakeBucket()
	g := newTestGateway(b, nil)

	finalURL, err := g.Upload(context.Background(), "Movie", "poster.jpg", InlinePayload(strings.NewReader("jpeg"), 4, "image/jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/Movie/poster.jpg", finalURL)
	require.Len(t, b.uploads, 1)
	assert.Equal(t, "media", aws.ToString(b.uploads[0].Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(b.uploads[0].ContentType))
	assert.Equal(t, "jpeg", b.bodies["Movie/poster.jpg"])
}

func TestUpload_Reference(t *testing.T) {
	b := newFakeBucket()
	g := newTestGateway(b, &fakeFetcher{body: "trailer-bytes", contentType: "video/mp4"})

	finalURL, err := g.Upload(context.Background(), "Movie", "trailer.mp4", ReferencePayload("https://origin.example.com/t.mp4", ""))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/Movie/trailer.mp4", finalURL)
	assert.Equal(t, "video/mp4", aws.ToString(b.uploads[0].ContentType))
	assert.Equal(t, "trailer-bytes", b.bodies["Movie/trailer.mp4"])
}

func TestUpload_SizeLimit(t *testing.T) {
	big := strings.Repeat("x", 1000)

	tests := []struct {
		name    string
		fetcher *fakeFetcher
		payload Payload
	}{
		{
			name:    "reference with declared length",
			fetcher: &fakeFetcher{body: big, contentType: "video/mp4"},
			payload: ReferencePayload("https://origin.example.com/a.mp4", ""),
		},
		{
			name:    "reference without content length",
			fetcher: &fakeFetcher{body: big, contentType: "video/mp4", chunked: true},
			payload: ReferencePayload("https://origin.example.com/a.mp4", ""),
		},
		{
			name:    "inline over limit",
			payload: InlinePayload(strings.NewReader(big), int64(len(big)), "video/mp4"),
		},
		{
			name:    "inline with understated size",
			payload: InlinePayload(strings.NewReader(big), 5, "video/mp4"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBucket()
			var f Fetcher
			if tt.fetcher != nil {
				f = tt.fetcher
			}
			g := NewGateway(b, b, b, f, Options{
				Bucket:         "media",
				PublicBaseURL:  "https://cdn.example.com",
				BaseTimeout:    time.Second,
				MaxObjectBytes: 10,
			})

			_, err := g.Upload(context.Background(), "Movie", "a.mp4", tt.payload)
			require.Error(t, err)
			assert.Equal(t, utils.KindValidation, utils.KindOf(err))
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "source file is too large", appErr.Message)
			assert.NotContains(t, b.objects, "Movie/a.mp4")
		})
	}
}

func TestUpload_ChunkedReferenceWithinLimit(t *testing.T) {
	b := newFakeBucket()
	g := NewGateway(b, b, b, &fakeFetcher{body: "0123456789", contentType: "video/mp4", chunked: true}, Options{
		Bucket:         "media",
		PublicBaseURL:  "https://cdn.example.com",
		BaseTimeout:    time.Second,
		MaxObjectBytes: 10,
	})

	_, err := g.Upload(context.Background(), "Movie", "a.mp4", ReferencePayload("https://origin.example.com/a.mp4", ""))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", b.bodies["Movie/a.mp4"])
}

func TestUpload_ReferenceFetchFails(t *testing.T) {
	g := newTestGateway(newFakeBucket(), &fakeFetcher{err: errors.New("dial tcp: refused")})

	_, err := g.Upload(context.Background(), "Movie", "a.mp4", ReferencePayload("https://origin.example.com/a.mp4", "video/mp4"))
	assert.Equal(t, utils.KindUpstream, utils.KindOf(err))
}

func TestUpload_InvalidPayload(t *testing.T) {
	g := newTestGateway(newFakeBucket(), nil)

	tests := []struct {
		name    string
		payload Payload
	}{
		{"empty inline", InlinePayload(nil, 0, "video/mp4")},
		{"inline with zero size", InlinePayload(strings.NewReader(""), 0, "video/mp4")},
		{"inline without content type", InlinePayload(strings.NewReader("x"), 1, "")},
		{"relative reference", ReferencePayload("/local/file.mp4", "video/mp4")},
		{"ftp reference", ReferencePayload("ftp://host/file.mp4", "video/mp4")},
		{"unknown kind", Payload{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Upload(context.Background(), "Movie", "a.mp4", tt.payload)
			assert.Equal(t, utils.KindValidation, utils.KindOf(err))
		})
	}
}

func TestDelete_SingleObject(t *testing.T) {
	b := newFakeBucket("movieTitle/file.mp4", "movieTitle/other.mp4", "movieTitle/file.mp4.bak")
	g := newTestGateway(b, nil)

	n, err := g.Delete(context.Background(), "movieTitle/file.mp4", false)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.NotContains(t, b.objects, "movieTitle/file.mp4")
	assert.Contains(t, b.objects, "movieTitle/other.mp4")
	assert.Contains(t, b.objects, "movieTitle/file.mp4.bak")
}

func TestDelete_MissingObjectCountsZero(t *testing.T) {
	b := newFakeBucket("movieTitle/other.mp4")
	g := newTestGateway(b, nil)

	n, err := g.Delete(context.Background(), "movieTitle/missing.mp4", false)
	require.NoError(t, err)

	assert.Equal(t, 0, n)
	assert.Len(t, b.objects, 1)
}

func TestDelete_Prefix(t *testing.T) {
	b := newFakeBucket(
		"movieTitle/1.mp4", "movieTitle/2.mp4", "movieTitle/3.mp4",
		"movieTitle/sub/4.mp4", "movieTitle2/1.mp4", "other/1.mp4",
	)
	g := newTestGateway(b, nil)

	n, err := g.Delete(context.Background(), "movieTitle/", true)
	require.NoError(t, err)

	assert.Equal(t, 4, n)
	assert.Len(t, b.objects, 2)
	assert.Contains(t, b.objects, "movieTitle2/1.mp4")
	assert.Contains(t, b.objects, "other/1.mp4")
	assert.Greater(t, b.listCalls, 1, "listing should be drained across pages")
}

func TestDelete_PrefixWithoutTrailingSlash(t *testing.T) {
	b := newFakeBucket("movieTitle/1.mp4", "movieTitle2/1.mp4")
	g := newTestGateway(b, nil)

	n, err := g.Delete(context.Background(), "movieTitle", true)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Contains(t, b.objects, "movieTitle2/1.mp4")
}

func TestDelete_EmptyPrefixMatchesNothing(t *testing.T) {
	b := newFakeBucket("a/1.mp4")
	g := newTestGateway(b, nil)

	n, err := g.Delete(context.Background(), "missing/", true)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, b.objects, 1)
}

func TestDelete_Rejected(t *testing.T) {
	g := newTestGateway(newFakeBucket("a/1.mp4"), nil)

	_, err := g.Delete(context.Background(), "", false)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = g.Delete(context.Background(), "a/", false)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = g.Delete(context.Background(), "/", true)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestDelete_UpstreamFailure(t *testing.T) {
	b := newFakeBucket("a/1.mp4", "a/2.mp4")
	b.failOn = "a/2.mp4"
	g := newTestGateway(b, nil)

	_, err := g.Delete(context.Background(), "a/", true)
	assert.Equal(t, utils.KindUpstream, utils.KindOf(err))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Failed to delete file from S3", appErr.Message)
}

func TestListAllDrainsPages(t *testing.T) {
	b := newFakeBucket("a/1", "a/2", "b/1", "b/2", "c/1")
	g := newTestGateway(b, nil)

	keys, err := g.ListAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a/1", "a/2", "b/1", "b/2", "c/1"}, keys)
	assert.Equal(t, 3, b.listCalls)
}

func TestListByFolder(t *testing.T) {
	b := newFakeBucket("a/1", "a/2", "ab/1")
	g := newTestGateway(b, nil)

	keys, err := g.ListByFolder(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, keys)

	_, err = g.ListByFolder(context.Background(), "")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestUploadTimeoutScalesWithSize(t *testing.T) {
	g := NewGateway(nil, nil, nil, nil, Options{
		BaseTimeout:    10 * time.Second,
		MinThroughput:  1 << 20,
		MaxObjectBytes: 100 << 20,
	})

	assert.Equal(t, 10*time.Second, g.UploadTimeout(0))
	assert.Equal(t, 21*time.Second, g.UploadTimeout(10<<20))
	assert.Equal(t, 111*time.Second, g.UploadTimeout(-1))
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey(" /Title/ ", "ep 01.mp4")
	require.NoError(t, err)
	assert.Equal(t, "Title/ep 01.mp4", key)

	key, err = ObjectKey("//Show//", " ep.mp4 ")
	require.NoError(t, err)
	assert.Equal(t, "Show/ep.mp4", key)

	_, err = ObjectKey(" / ", "ep.mp4")
	assert.Error(t, err)

	_, err = ObjectKey("Title", "nested/ep.mp4")
	assert.Error(t, err)
}
