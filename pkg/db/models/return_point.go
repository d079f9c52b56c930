package models

// ReturnPoint is a deposit-return location collections are delivered to.
type ReturnPoint struct {
	ID         uint    `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID string  `gorm:"column:external_id;size:64;not null;uniqueIndex"`
	Name       string  `gorm:"column:name;size:255;not null"`
	Type       string  `gorm:"column:type;size:32;not null"`
	Eircode    *string `gorm:"column:eircode;size:32"`
	Retailer   *string `gorm:"column:retailer;size:128"`
	Lat        float64 `gorm:"column:lat;not null"`
	Lng        float64 `gorm:"column:lng;not null"`
}
