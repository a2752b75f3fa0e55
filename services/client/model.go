package client

import (
	"strings"
	"time"
)

type Client struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
	CompanyName   string    `gorm:"column:company_name;uniqueIndex;not null" json:"company_name"`
	StorageFolder string    `gorm:"column:storage_folder" json:"storage_folder"`
	DriveFolderID string    `gorm:"column:drive_folder_id" json:"drive_folder_id,omitempty"`
	UserID        string    `gorm:"column:user_id;index" json:"user_id,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}

// StorageRoot is the bucket prefix holding the client's folders.
func (c *Client) StorageRoot() string {
	if root := strings.Trim(c.StorageFolder, "/"); root != "" {
		return root
	}
	return strings.TrimSpace(c.CompanyName)
}
