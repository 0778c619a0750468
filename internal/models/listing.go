package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Category tells whether food is meant for people or for animal feed.
type Category string

const (
	CategoryHuman  Category = "HUMAN"
	CategoryAnimal Category = "ANIMAL"
)

// Listing is a vendor-posted offer of surplus food.
type Listing struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Title         string         `json:"title" gorm:"type:varchar(200);not null" bson:"title"`
	Description   string         `json:"description" gorm:"type:text;not null" bson:"description"`
	Price         float64        `json:"price" gorm:"not null" bson:"price"`
	OriginalPrice *float64       `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Category      Category       `json:"category" gorm:"type:varchar(16);not null" bson:"category"`
	Quantity      string         `json:"quantity" gorm:"type:varchar(100);not null" bson:"quantity"`
	PickupTime    string         `json:"pickupTime" gorm:"type:varchar(100);not null" bson:"pickupTime"`
	VendorID      string         `json:"vendorId" gorm:"index;type:varchar(36);not null" bson:"vendorId"`
	Vendor        *VendorSummary `json:"vendor,omitempty" gorm:"-" bson:"-"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// CreateListingInput is the body accepted when a vendor posts a listing.
// It has no vendor field: ownership comes from the token.
type CreateListingInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description" validate:"required,max=2000"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gte=0"`
	Category      Category `json:"category" validate:"required,oneof=HUMAN ANIMAL"`
	Quantity      string   `json:"quantity" validate:"required,max=100"`
	PickupTime    string   `json:"pickupTime" validate:"required,max=100"`
}

// UpdateListingInput is a partial update; nil fields are left untouched.
// Sending "originalPrice": null removes the original price.
type UpdateListingInput struct {
	Title         *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,min=1,max=2000"`
	Price         *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	OriginalPrice *float64  `json:"originalPrice,omitempty" validate:"omitempty,gte=0"`
	Category      *Category `json:"category,omitempty" validate:"omitempty,oneof=HUMAN ANIMAL"`
	Quantity      *string   `json:"quantity,omitempty" validate:"omitempty,min=1,max=100"`
	PickupTime    *string   `json:"pickupTime,omitempty" validate:"omitempty,min=1,max=100"`

	ClearOriginalPrice bool `json:"-"`
}

type plainUpdateListingInput UpdateListingInput

// UnmarshalJSON sets ClearOriginalPrice when originalPrice is an explicit null.
func (in *UpdateListingInput) UnmarshalJSON(data []byte) error {
	var p plainUpdateListingInput
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = UpdateListingInput(p)
	if v, ok := raw["originalPrice"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		in.OriginalPrice = nil
		in.ClearOriginalPrice = true
	}
	return nil
}

// MarshalJSON writes "originalPrice": null when ClearOriginalPrice is set.
func (in UpdateListingInput) MarshalJSON() ([]byte, error) {
	if !in.ClearOriginalPrice || in.OriginalPrice != nil {
		return json.Marshal(plainUpdateListingInput(in))
	}
	return json.Marshal(struct {
		plainUpdateListingInput
		OriginalPrice *float64 `json:"originalPrice"`
	}{plainUpdateListingInput: plainUpdateListingInput(in)})
}

// IsEmpty reports whether the patch carries no field at all.
func (in UpdateListingInput) IsEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Price == nil &&
		in.OriginalPrice == nil && !in.ClearOriginalPrice && in.Category == nil &&
		in.Quantity == nil && in.PickupTime == nil
}

// ApplyTo copies the non-nil fields of the patch onto listing and drops the
// original price when asked to.
func (in UpdateListingInput) ApplyTo(listing *Listing) {
	if in.Title != nil {
		listing.Title = *in.Title
	}
	if in.Description != nil {
		listing.Description = *in.Description
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		v := *in.OriginalPrice
		listing.OriginalPrice = &v
	} else if in.ClearOriginalPrice {
		listing.OriginalPrice = nil
	}
	if in.Category != nil {
		listing.Category = *in.Category
	}
	if in.Quantity != nil {
		listing.Quantity = *in.Quantity
	}
	if in.PickupTime != nil {
		listing.PickupTime = *in.PickupTime
	}
}
