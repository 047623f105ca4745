package models

// Restaurant is static fixture data. Distance is a fixed value in km, nothing computes it.
type Restaurant struct {
	ID       string  `json:"id" gorm:"primaryKey"`
	OwnerID  string  `json:"owner_id" gorm:"index;not null"`
	Name     string  `json:"name" gorm:"not null"`
	Address  string  `json:"address"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating" gorm:"default:0"`
	Distance float64 `json:"distance"`
}
