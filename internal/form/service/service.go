package service

import (
	"github.com/HooJohn/form.ai/internal/config"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/shared/gemini"
	"github.com/HooJohn/form.ai/internal/shared/ocr"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth     *AuthService
	Template *TemplateService
	Form     *FormService
	Autofill *AutofillService
	Analysis *AnalysisService
	Extract  *ExtractService
	Report   *ReportService
	Document *DocumentService
	Feedback *FeedbackService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化Gemini客户端
	llm := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)

	// 初始化OCR引擎
	ocrEngine := ocr.NewPaddleEngine(cfg.OCR.PythonBin, cfg.OCR.ScriptPath, cfg.OCR.Lang, cfg.OCR.Timeout)

	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO init failed, falling back to local storage", zap.Error(err))
			minioClient = nil
		}
	}

	feedbackSvc := NewFeedbackService(repos.Feedback, logger)
	autofillSvc := NewAutofillService()
	formSvc := NewFormService(repos.Form, repos.Template, autofillSvc, feedbackSvc, logger)

	return &Services{
		Auth:     NewAuthService(repos.User, rdb, cfg),
		Template: NewTemplateService(repos.Template),
		Form:     formSvc,
		Autofill: autofillSvc,
		Analysis: NewAnalysisService(llm, ocrEngine, cfg.Gemini.MaxRetries, logger),
		Extract:  NewExtractService(llm, logger),
		Report:   NewReportService(llm, repos.Form, logger),
		Document: NewDocumentService(repos.Document, minioClient, cfg.MinIO.Bucket, cfg.Upload.LocalDir, cfg.Upload.MaxSizeBytes),
		Feedback: feedbackSvc,
	}
}

// generateID 生成实体ID
func generateID() string {
	return uuid.New().String()
}
