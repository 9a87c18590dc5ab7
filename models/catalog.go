package models

import (
	"time"
)

// FeedSource status constants.
const (
	SourceStatusActive   = "active"
	SourceStatusInactive = "inactive"
)

// FeedSource is a registered XML feed URL that owns a subset of the catalog.
type FeedSource struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	URL          string     `gorm:"type:varchar(1024);not null;uniqueIndex" json:"url"`
	Status       string     `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	ProductCount int        `gorm:"not null;default:0" json:"product_count"`
	LastUpdate   *time.Time `json:"last_update"`
	NextUpdate   *time.Time `json:"next_update"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName keeps the legacy table name used by the admin panel.
func (FeedSource) TableName() string { return "xml_urls" }

// Product is the catalog row owned by a feed source. The primary key is the
// numeric id carried by the feed itself, so re-ingesting the same feed never
// mints a new identity for an existing product.
type Product struct {
	ID           int64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ProductCode  string   `gorm:"type:varchar(128)" json:"product_code"`
	Barcode      string   `gorm:"type:varchar(128)" json:"barcode"`
	MainCategory string   `gorm:"type:varchar(256)" json:"main_category"`
	TopCategory  string   `gorm:"type:varchar(256)" json:"top_category"`
	SubCategory  string   `gorm:"type:varchar(256)" json:"sub_category"`
	CategoryID   *int     `json:"category_id"`
	Category     string   `gorm:"type:varchar(256)" json:"category"`
	BrandID      *int     `json:"brand_id"`
	Brand        string   `gorm:"type:varchar(256)" json:"brand"`
	Name         string   `gorm:"type:varchar(512);not null" json:"name"`
	Description  string   `gorm:"type:text" json:"description"`
	Detail       string   `gorm:"type:text" json:"detail"`
	Image1       string   `gorm:"type:varchar(1024)" json:"image1"`
	Image2       string   `gorm:"type:varchar(1024)" json:"image2"`
	Image3       string   `gorm:"type:varchar(1024)" json:"image3"`
	Image4       string   `gorm:"type:varchar(1024)" json:"image4"`
	Image5       string   `gorm:"type:varchar(1024)" json:"image5"`
	Image6       string   `gorm:"type:varchar(1024)" json:"image6"`
	Image7       string   `gorm:"type:varchar(1024)" json:"image7"`
	Image8       string   `gorm:"type:varchar(1024)" json:"image8"`
	Image9       string   `gorm:"type:varchar(1024)" json:"image9"`
	ListPrice    *float64 `json:"list_price"`
	Price        float64  `gorm:"not null;default:0" json:"price"`
	Tax          *float64 `json:"tax"`
	Currency     string   `gorm:"type:varchar(8);not null;default:'TRY'" json:"currency"`
	Desi         *float64 `json:"desi"`
	Quantity     int      `gorm:"not null;default:0" json:"quantity"`
	Active       bool     `gorm:"not null;default:false" json:"active"`
	Domestic     bool     `gorm:"not null;default:false" json:"domestic"`
	ShowHome     bool     `gorm:"not null;default:false;column:show_home" json:"show_home"`
	InDiscount   bool     `gorm:"not null;default:false;column:in_discount" json:"in_discount"`
	// Nil for products loaded through a one-off file upload.
	XMLURLID  *uint     `gorm:"column:xml_url_id;index" json:"xml_url_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Variant is a sellable sub-unit of a product, distinguished by up to two
// named attribute axes. Variants have no identity of their own: each
// ingestion pass deletes the parent's variant set and inserts the new one.
type Variant struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	Name1     string `gorm:"type:varchar(128)" json:"name1"`
	Value1    string `gorm:"type:varchar(256)" json:"value1"`
	Name2     string `gorm:"type:varchar(128)" json:"name2"`
	Value2    string `gorm:"type:varchar(256)" json:"value2"`
	Quantity  int    `gorm:"not null;default:0" json:"quantity"`
	Barcode   string `gorm:"type:varchar(128)" json:"barcode"`
}
