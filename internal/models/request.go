package models

type GenerateImageRequest struct {
	Prompt        string `json:"prompt" binding:"required"`
	WalletAddress string `json:"walletAddress,omitempty"`
	// BaseObject is an optional base image for image-to-image generation,
	// either a data URI or an http(s) URL.
	BaseObject            string `json:"baseObject,omitempty"`
	Width                 int    `json:"width,omitempty"`
	Height                int    `json:"height,omitempty"`
	ImageGeneratorVersion string `json:"image_generator_version,omitempty"` // "standard", "hd", "genius"
	GeniusPreference      string `json:"genius_preference,omitempty"`       // "anime", "photography", "graphic", "cinematic"
	NegativePrompt        string `json:"negative_prompt,omitempty"`
}

type NonceRequest struct {
	Address string `json:"address" binding:"required"`
}

type VerifyRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type StorePromptRequest struct {
	Prompt UserPrompt `json:"prompt" binding:"required"`
}

type StoreContentRequest struct {
	PieceCID string `json:"pieceCid" binding:"required"`
	DataCID  string `json:"dataCid" binding:"required"`
	// Price in FIL, decimal string.
	Price       string `json:"price" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PieceSize   int64  `json:"pieceSize" binding:"required"`
}
