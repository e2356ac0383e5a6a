package models

// Route is a bus route with a configured fare in cents. Routes are
// referenced by the fare engine and transaction annotations, never mutated.
type Route struct {
	ID         int    `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	StartPoint string `json:"start_point" db:"start_point"`
	EndPoint   string `json:"end_point" db:"end_point"`
	Fare       int64  `json:"fare" db:"fare"` // in cents
}

// Bus annotates fare transactions with the vehicle a validation happened on.
type Bus struct {
	ID           int    `json:"id" db:"id"`
	Number       string `json:"number" db:"number"`
	DriverName   string `json:"driver_name" db:"driver_name"`
	CurrentRoute *int   `json:"current_route,omitempty" db:"current_route"`
}
