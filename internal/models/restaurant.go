package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Tags is a text array column. It is a native text[] on postgres and the
// array literal form ("{a,b}") in a text column elsewhere.
type Tags []string

func (t *Tags) Scan(src any) error {
	return (*pq.StringArray)(t).Scan(src)
}

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (Tags) GormDataType() string {
	return "text"
}

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type Restaurant struct {
	ID             int        `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"not null;index" json:"name"`
	Address        string     `gorm:"not null" json:"address"`
	City           string     `gorm:"index" json:"city"`
	Province       string     `json:"province"`
	PostalCode     string     `json:"postal_code"`
	Phone          string     `json:"phone"`
	Category       string     `gorm:"index" json:"category"`
	CuisineTags    Tags       `json:"cuisine_tags"`
	WebsiteURL     string     `json:"website_url"`
	OperatingHours string     `json:"operating_hours"`
	ImageURL       string     `json:"image_url"`
	DataSource     string     `json:"data_source"`
	SubmittedBy    *int       `json:"submitted_by"`
	IsVerified     bool       `gorm:"not null" json:"is_verified"`
	VerifiedBy     *int       `json:"verified_by"`
	VerifiedAt     *time.Time `json:"verified_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Submitter *User `gorm:"foreignKey:SubmittedBy;constraint:OnDelete:SET NULL" json:"-"`
	Verifier  *User `gorm:"foreignKey:VerifiedBy;constraint:OnDelete:SET NULL" json:"-"`
}

type CreateRestaurantRequest struct {
	Name           string   `json:"name" binding:"required"`
	Address        string   `json:"address" binding:"required"`
	City           string   `json:"city"`
	Province       string   `json:"province"`
	PostalCode     string   `json:"postal_code"`
	Phone          string   `json:"phone"`
	Category       string   `json:"category"`
	CuisineTags    []string `json:"cuisine_tags"`
	WebsiteURL     string   `json:"website_url"`
	OperatingHours string   `json:"operating_hours"`
	ImageURL       string   `json:"image_url"`
}

// RestaurantPatch lists the restaurant columns an edit may touch.
type RestaurantPatch struct {
	Name           *string   `json:"name"`
	Address        *string   `json:"address"`
	City           *string   `json:"city"`
	Province       *string   `json:"province"`
	PostalCode     *string   `json:"postal_code"`
	Phone          *string   `json:"phone"`
	Category       *string   `json:"category"`
	CuisineTags    *[]string `json:"cuisine_tags"`
	WebsiteURL     *string   `json:"website_url"`
	OperatingHours *string   `json:"operating_hours"`
	ImageURL       *string   `json:"image_url"`
}

func (p RestaurantPatch) Columns() map[string]any {
	cols := map[string]any{}
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	set("name", p.Name)
	set("address", p.Address)
	set("city", p.City)
	set("province", p.Province)
	set("postal_code", p.PostalCode)
	set("phone", p.Phone)
	set("category", p.Category)
	set("website_url", p.WebsiteURL)
	set("operating_hours", p.OperatingHours)
	set("image_url", p.ImageURL)
	if p.CuisineTags != nil {
		cols["cuisine_tags"] = Tags(*p.CuisineTags)
	}
	return cols
}

// RestaurantFilter narrows a restaurant listing.
type RestaurantFilter struct {
	City       string
	Category   string
	Search     string
	IsVerified *bool
	Limit      int
	Offset     int
}
