package entity

import "time"

// UploadedDocument 上传的源文件（待OCR的申请表扫描件等）
type UploadedDocument struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerID     string    `json:"ownerId" gorm:"size:36;not null;index"`
	FileName    string    `json:"fileName" gorm:"size:256;not null"`
	ObjectKey   string    `json:"objectKey" gorm:"size:512;not null"`
	ContentType string    `json:"contentType" gorm:"size:64;not null"`
	SizeBytes   int64     `json:"sizeBytes" gorm:"not null"`
	Storage     string    `json:"storage" gorm:"size:16;not null;default:'local'"` // minio / local
	CreatedAt   time.Time `json:"createdAt"`
}

func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}
