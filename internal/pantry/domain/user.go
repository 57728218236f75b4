package domain

import "time"

// SecurityQuestion is the fixed system-wide recovery question assigned to
// every account at registration.
const SecurityQuestion = "What is your favourite childhood book"

// User is the identity record. Username and email are stored lowercase and
// are globally unique; the two secret fields only ever hold hash output.
type User struct {
	ID                 string
	Username           string
	Email              string
	PasswordHash       string // bcrypt encoded
	SecurityQuestion   string
	SecurityAnswerHash string // bcrypt encoded
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
