package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/user/alldrama/internal/storage"
	"github.com/user/alldrama/internal/utils"
)

type uploadURLRequest struct {
	Title       string `json:"title" binding:"required,blobname"`
	FileName    string `json:"fileName" binding:"required,blobname"`
	ContentType string `json:"contentType" binding:"required"`
}

type uploadRequest struct {
	Title       string `json:"title" form:"title" binding:"required,blobname"`
	FileName    string `json:"fileName" form:"fileName" binding:"required,blobname"`
	ContentType string `json:"contentType" form:"contentType"`
	SourceURL   string `json:"sourceUrl" form:"sourceUrl" binding:"omitempty,url"`
}

type deleteFileRequest struct {
	FileKey  string `json:"fileKey" binding:"required,blobname"`
	IsPrefix bool   `json:"isPrefix"`
}

type listFolderRequest struct {
	Folder string `json:"folder" binding:"required,blobname"`
}

var errStorageDisabled = errors.New("object storage is not configured")

func (h *Handler) blobs(c *gin.Context) (BlobStore, bool) {
	if h.Blobs == nil {
		utils.Fail(c, utils.UpstreamError("Object storage is unavailable", errStorageDisabled))
		return nil, false
	}
	return h.Blobs, true
}

// UploadURL 生成预签名上传地址
func (h *Handler) UploadURL(c *gin.Context) {
	blobs, ok := h.blobs(c)
	if !ok {
		return
	}
	var req uploadURLRequest
	if !bind(c, &req) {
		return
	}
	ticket, err := blobs.IssueUploadURL(c.Request.Context(), req.Title, req.FileName, req.ContentType)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, ticket)
}

// Upload 服务端上传：multipart 的 file 字段，或 JSON 中的 sourceUrl
func (h *Handler) Upload(c *gin.Context) {
	blobs, ok := h.blobs(c)
	if !ok {
		return
	}
	if h.Config.MaxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.MaxUpload)
	}

	var (
		req     uploadRequest
		payload storage.Payload
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			utils.BadRequest(c, bindMessage(err))
			return
		}
		p, file, err := multipartPayload(c, req.ContentType)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		defer file.Close()
		payload = p
	} else {
		if !bind(c, &req) {
			return
		}
		if req.SourceURL == "" {
			utils.BadRequest(c, "No file uploaded")
			return
		}
		payload = storage.ReferencePayload(req.SourceURL, req.ContentType)
	}

	finalURL, err := blobs.Upload(c.Request.Context(), req.Title, req.FileName, payload)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithMessage(c, "File uploaded successfully", gin.H{"finalUrl": finalURL})
}

// multipartPayload 打开表单中的 file 字段，文件流直接交给存储网关，由调用方关闭
func multipartPayload(c *gin.Context, contentType string) (storage.Payload, multipart.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return storage.Payload{}, nil, utils.ValidationError("file is too large")
		}
		return storage.Payload{}, nil, utils.ValidationError("No file uploaded")
	}
	f, err := fh.Open()
	if err != nil {
		return storage.Payload{}, nil, err
	}
	if contentType == "" {
		contentType = fh.Header.Get("Content-Type")
	}
	return storage.InlinePayload(f, fh.Size, contentType), f, nil
}

// DeleteFile 删除单个文件，isPrefix 为 true 时删除整个文件夹
func (h *Handler) DeleteFile(c *gin.Context) {
	blobs, ok := h.blobs(c)
	if !ok {
		return
	}
	var req deleteFileRequest
	if !bind(c, &req) {
		return
	}
	n, err := blobs.Delete(c.Request.Context(), req.FileKey, req.IsPrefix)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	msg := "File deleted successfully from S3"
	if req.IsPrefix {
		msg = "Folder deleted successfully from S3"
	}
	utils.SuccessWithMessage(c, msg, gin.H{"deleted": n})
}

// ListFiles 列出 bucket 中全部对象
func (h *Handler) ListFiles(c *gin.Context) {
	blobs, ok := h.blobs(c)
	if !ok {
		return
	}
	keys, err := blobs.ListAll(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"fileKeys": keys})
}

// ListFolder 列出文件夹下的对象
func (h *Handler) ListFolder(c *gin.Context) {
	blobs, ok := h.blobs(c)
	if !ok {
		return
	}
	var req listFolderRequest
	if !bind(c, &req) {
		return
	}
	keys, err := blobs.ListByFolder(c.Request.Context(), req.Folder)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"fileKeys": keys})
}
