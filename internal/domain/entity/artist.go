package entity

// Artist is an artist the authenticated catalog user follows.
type Artist struct {
	ID   string
	Name string
}
