package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/minio/minio-go/v7"
)

// 上传校验错误
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds size limit")
)

// 允许上传的MIME类型
var allowedMIMETypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// DocumentService 上传文档服务
// 对象存储优先MinIO，未配置时落到本地目录
type DocumentService struct {
	repo        *repository.DocumentRepository
	minioClient *minio.Client
	bucket      string
	localDir    string
	maxSize     int64
}

// NewDocumentService 创建文档服务
func NewDocumentService(repo *repository.DocumentRepository, minioClient *minio.Client, bucket, localDir string, maxSize int64) *DocumentService {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if localDir == "" {
		localDir = "uploads"
	}
	return &DocumentService{
		repo:        repo,
		minioClient: minioClient,
		bucket:      bucket,
		localDir:    localDir,
		maxSize:     maxSize,
	}
}

// ValidateUpload 上传边界检查：MIME白名单 + 大小上限
// 必须在文件进入OCR/存储之前调用
func (s *DocumentService) ValidateUpload(header *multipart.FileHeader) error {
	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedMIMETypes[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}
	if header.Size > s.maxSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, header.Size, s.maxSize)
	}
	return nil
}

// Save 校验并保存上传文件，返回文档记录
func (s *DocumentService) Save(ctx context.Context, ownerID string, header *multipart.FileHeader) (*entity.UploadedDocument, error) {
	if err := s.ValidateUpload(header); err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	// 防碰撞的存储名，不信任客户端文件名
	objectKey := fmt.Sprintf("%s/%s%s", ownerID, generateID(), allowedMIMETypes[contentType])

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer src.Close()

	storage := "local"
	if s.minioClient != nil {
		storage = "minio"
		if _, err := s.minioClient.PutObject(ctx, s.bucket, objectKey, src, header.Size, minio.PutObjectOptions{
			ContentType: contentType,
		}); err != nil {
			return nil, fmt.Errorf("上传到对象存储失败: %w", err)
		}
	} else {
		if err := s.saveLocal(objectKey, src); err != nil {
			return nil, err
		}
	}

	doc := &entity.UploadedDocument{
		ID:          generateID(),
		OwnerID:     ownerID,
		FileName:    filepath.Base(header.Filename),
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   header.Size,
		Storage:     storage,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("记录上传文档失败: %w", err)
	}
	return doc, nil
}

// LocalPath 取文档的本地文件路径，MinIO存储的文档会先拉到临时文件
// OCR子进程只接受文件路径
func (s *DocumentService) LocalPath(ctx context.Context, doc *entity.UploadedDocument) (string, func(), error) {
	if doc.Storage == "local" {
		return filepath.Join(s.localDir, doc.ObjectKey), func() {}, nil
	}

	obj, err := s.minioClient.GetObject(ctx, s.bucket, doc.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("读取对象存储失败: %w", err)
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "formai-ocr-*"+filepath.Ext(doc.ObjectKey))
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, obj); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("下载对象失败: %w", err)
	}
	tmp.Close()

	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

// SaveTemp 把上传文件直接写到临时路径（分析接口即传即用，不入库）
func (s *DocumentService) SaveTemp(header *multipart.FileHeader) (string, func(), error) {
	if err := s.ValidateUpload(header); err != nil {
		return "", nil, err
	}

	src, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer src.Close()

	contentType := header.Header.Get("Content-Type")
	tmp, err := os.CreateTemp("", "formai-upload-*"+allowedMIMETypes[contentType])
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("写入临时文件失败: %w", err)
	}
	tmp.Close()

	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

// ListByOwner 获取用户上传记录
func (s *DocumentService) ListByOwner(ctx context.Context, ownerID string) ([]entity.UploadedDocument, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *DocumentService) saveLocal(objectKey string, src io.Reader) error {
	fullPath := filepath.Join(s.localDir, objectKey)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("创建上传目录失败: %w", err)
	}
	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("创建本地文件失败: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("写入本地文件失败: %w", err)
	}
	return nil
}
