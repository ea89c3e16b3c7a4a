package types

// Profile is the authenticated user's record as returned by the item store.
// The favorites set on it is the authoritative one; local toggle state is
// never trusted past its pending window.
type Profile struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Phone           string  `json:"phone"`
	FavoriteItemIDs []int64 `json:"favorite_item_ids"`
}
