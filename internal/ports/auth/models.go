package auth

// Claims representa la identidad extraída de un access token.
type Claims struct {
	UserID string
	Email  string
}
