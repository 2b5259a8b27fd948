package models

// Account is the stored profile for a registered user. Plates are normalized
// uppercase alphanumeric strings; a plate belongs to at most one account
// across the whole registry.
type Account struct {
	Name   string   `json:"name"`
	Phone  string   `json:"phone"`
	Email  string   `json:"email"`
	Plates []string `json:"plates"`
}

// HasPlate reports whether the normalized plate is listed on this account.
func (a *Account) HasPlate(plate string) bool {
	for _, p := range a.Plates {
		if p == plate {
			return true
		}
	}
	return false
}
