package model

import "time"

// Appointment is one booked visit inside a tenant schema. Time is a
// normalized HH:MM string and Day a normalized YYYY-MM-DD string.
type Appointment struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Contact    string  `json:"contact"`
	Time       string  `json:"time"`
	Day        string  `json:"day"`
	Prepayment float64 `json:"prepayment"`
}

// User is a row in the shared public.users table. SchemaName is empty until
// the tenant schema has been provisioned.
type User struct {
	ID         int64     `json:"id"`
	TgID       int64     `json:"tg_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	SchemaName string    `json:"schema_name"`
	CreatedAt  time.Time `json:"created_at"`
}
