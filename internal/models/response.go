package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type GenerateImageMetadata struct {
	Prompt        string `json:"prompt"`
	WalletAddress string `json:"walletAddress,omitempty"`
	GeneratedAt   string `json:"generatedAt"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Version       string `json:"version"`
	Preference    string `json:"preference"`
	HasBaseImage  bool   `json:"hasBaseImage"`
}

type GenerateImageResponse struct {
	Success          bool                  `json:"success"`
	ImageURL         string                `json:"imageUrl"`
	ShareURL         string                `json:"shareUrl,omitempty"`
	ID               string                `json:"id"`
	BackendRequestID string                `json:"backendRequestId,omitempty"`
	NSFWScore        float64               `json:"nsfw_score,omitempty"`
	Metadata         GenerateImageMetadata `json:"metadata"`
}

type UsageResponse struct {
	Message string         `json:"message"`
	Usage   string         `json:"usage"`
	Example map[string]any `json:"example"`
}

type NonceResponse struct {
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
}

type VerifyResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type StorePromptResponse struct {
	Success     bool   `json:"success"`
	CID         string `json:"cid,omitempty"`
	FilecoinURL string `json:"filecoinUrl,omitempty"`
	// LocalOnly is true when Filecoin storage degraded to local persistence.
	LocalOnly bool   `json:"localOnly"`
	Status    string `json:"status"`
}

type WalletCIDsResponse struct {
	Address string   `json:"address"`
	CIDs    []string `json:"cids"`
}

type PaymentResponse struct {
	DepositAmount string `json:"depositAmount"` // USDFC, decimal string
	StorageGB     int    `json:"storageGB"`
	DurationDays  int    `json:"durationDays"`
	TxHash        string `json:"txHash"`
}

type StoreContentResponse struct {
	ContentID uint64 `json:"contentId"`
	TxHash    string `json:"txHash"`
}

type PurchaseResponse struct {
	ContentID uint64 `json:"contentId"`
	TxHash    string `json:"txHash"`
}

type CIDResponse struct {
	ContentID uint64 `json:"contentId"`
	DataCID   string `json:"dataCid"`
}

type DealStatusResponse struct {
	ContentID uint64 `json:"contentId"`
	Activated bool   `json:"activated"`
}
