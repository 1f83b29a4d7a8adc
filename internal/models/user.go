package models

type User struct {
	ID    int64
	Name  string
	Email string
}

type NewUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch holds optional fields; nil or blank means "leave unchanged".
type UserPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
