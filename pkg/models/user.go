package models

// User is a record of the users demo collection
type User struct {
	ID    string
	Name  string
	Email string
}
