package models

import "time"

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country"`
}

type User struct {
	ID           string    `json:"id" example:"5f0c1f2e-8a3c-4b53-9a53-3f1c2d7e9b10"`
	Email        string    `json:"email" example:"user@example.com"`
	FirstName    string    `json:"firstName" example:"John"`
	LastName     string    `json:"lastName" example:"Doe"`
	PhoneNumber  string    `json:"phoneNumber" example:"+15555550100"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	Address      Address   `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
