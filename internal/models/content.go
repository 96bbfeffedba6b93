package models

// StoredContent mirrors the on-chain content record. UserHasAccess is
// relative to the querying wallet and computed per call.
type StoredContent struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         string `json:"price"` // FIL, decimal string
	Owner         string `json:"owner"`
	IsActive      bool   `json:"isActive"`
	CreatedAt     int64  `json:"createdAt"`
	DealID        uint64 `json:"dealId"`
	PieceSize     uint64 `json:"pieceSize"`
	UserHasAccess bool   `json:"userHasAccess"`
}
