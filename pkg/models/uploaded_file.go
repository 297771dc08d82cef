package models

import "time"

// UploadedFile records metadata for an encrypted attachment blob. The blob
// itself lives in the configured blob store (filesystem or S3) under the
// generated Filename; only the uploader may delete it.
type UploadedFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"uniqueIndex;not null;size:64" json:"filename"`
	Size       int64     `gorm:"not null" json:"size"`
	Hash       string    `gorm:"not null;size:64" json:"hash"` // SHA-256 of the encrypted blob
	UploaderID uint      `gorm:"not null;index" json:"uploader_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Uploader User `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for UploadedFile.
func (UploadedFile) TableName() string {
	return "uploaded_files"
}
