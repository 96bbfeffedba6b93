package models

// PromptMetadata captures the generation parameters attached to every
// prompt and image record.
type PromptMetadata struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Version    string `json:"version"`
	Preference string `json:"preference"`
}

// UserPrompt is a generation request recorded for a wallet. CID and
// FilecoinURL are filled in only after the prompt has been stored on
// Filecoin; a local-only prompt leaves them empty.
type UserPrompt struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"` // wallet address
	Prompt         string         `json:"prompt"`
	EnhancedPrompt string         `json:"enhancedPrompt"`
	BaseImageURL   string         `json:"baseImageUrl,omitempty"`
	Timestamp      int64          `json:"timestamp"`
	CID            string         `json:"cid,omitempty"`
	FilecoinURL    string         `json:"filecoinUrl,omitempty"`
	Metadata       PromptMetadata `json:"metadata"`
}

// GeneratedImage is one result produced from a UserPrompt (one prompt can
// yield many images across regenerations).
type GeneratedImage struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	PromptID  string         `json:"promptId"`
	ImageURL  string         `json:"imageUrl"`
	ShareURL  string         `json:"shareUrl,omitempty"`
	DeepAIID  string         `json:"deepaiId"`
	Timestamp int64          `json:"timestamp"`
	Metadata  PromptMetadata `json:"metadata"`
}
