package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"base0-backend/internal/database"
	"base0-backend/internal/models"
	"base0-backend/internal/synapse"
)

type Stage string

const (
	StageIdle       Stage = "idle"
	StagePreparing  Stage = "preparing"
	StageDepositing Stage = "depositing"
	StageApproving  Stage = "approving"
	StageUploading  Stage = "uploading"
	StageConfirming Stage = "confirming"
	StageCompleted  Stage = "completed"
	StageError      Stage = "error"
)

type Progress struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	TxHash   string `json:"txHash,omitempty"`
}

type ProgressFunc func(Progress)

const (
	// persistenceDays is how long a deposit should cover.
	persistenceDays = 30

	// The preflight API caps estimable sizes, so the 10 GB payment flow
	// estimates a 100 MB sample and scales up.
	sampleSize int64 = 100 * 1024 * 1024
	targetSize int64 = 10 * 1024 * 1024 * 1024

	signerAttempts   = 3
	signerRetryDelay = 1500 * time.Millisecond
)

type StoreResult struct {
	Stage       Stage
	CID         string
	FilecoinURL string
	// LocalOnly is true when the prompt was persisted locally without a CID.
	LocalOnly bool
}

type PaymentResult struct {
	DepositAmount *big.Int
	StorageGB     int
	DurationDays  int
	TxHash        string
}

// Pipeline drives a prompt upload through payment and storage. Each call
// runs the full state machine:
// preparing -> (depositing -> approving)? -> uploading -> confirming.
type Pipeline struct {
	storage  synapse.StorageService
	payments synapse.PaymentService
	db       *database.Client

	warmStorageAddress string

	// signerReady reports whether the signing identity is usable yet.
	// Nil means always ready.
	signerReady func(ctx context.Context) error
	sleep       func(d time.Duration)
}

func NewPipeline(storageSvc synapse.StorageService, payments synapse.PaymentService, db *database.Client, warmStorageAddress string) *Pipeline {
	return &Pipeline{
		storage:            storageSvc,
		payments:           payments,
		db:                 db,
		warmStorageAddress: warmStorageAddress,
		sleep:              time.Sleep,
	}
}

// SetSignerCheck installs a readiness probe for the signing identity.
func (p *Pipeline) SetSignerCheck(check func(ctx context.Context) error) {
	p.signerReady = check
}

// StorePrompt uploads a prompt to Filecoin and records the resulting CID.
// Payment failures end in StageError and are returned as ErrPayment;
// transient failures degrade to local-only persistence (the prompt row is
// saved without a CID) and are returned wrapped in ErrLocalFallback.
func (p *Pipeline) StorePrompt(ctx context.Context, prompt *models.UserPrompt, onProgress ProgressFunc) (*StoreResult, error) {
	report := func(stage Stage, progress int, message, txHash string) {
		if onProgress != nil {
			onProgress(Progress{Stage: stage, Progress: progress, Message: message, TxHash: txHash})
		}
	}

	report(StagePreparing, 5, "Preparing prompt data for upload", "")

	data, err := json.MarshalIndent(prompt, "", "  ")
	if err != nil {
		return &StoreResult{Stage: StageError}, fmt.Errorf("failed to encode prompt: %w", err)
	}

	if err := p.waitForSigner(ctx); err != nil {
		p.saveLocalOnly(prompt)
		report(StageError, 0, "Signer not available, prompt saved locally", "")
		return &StoreResult{Stage: StageError, LocalOnly: true}, fmt.Errorf("%w: %v", ErrSignerTiming, err)
	}

	report(StagePreparing, 10, "Checking storage costs and balances", "")

	preflight, err := p.storage.PreflightUpload(ctx, int64(len(data)))
	if err != nil {
		p.saveLocalOnly(prompt)
		report(StageError, 0, "Preflight failed, prompt saved locally", "")
		return &StoreResult{Stage: StageError, LocalOnly: true}, fmt.Errorf("%w: preflight: %v", ErrLocalFallback, err)
	}

	if !preflight.AllowanceSufficient {
		if p.payments == nil {
			p.saveLocalOnly(prompt)
			report(StageError, 0, "No payment signer configured", "")
			return &StoreResult{Stage: StageError, LocalOnly: true}, fmt.Errorf("%w: no signing key configured", ErrPayment)
		}

		deposit := DepositForDays(preflight.EstimatedCost, persistenceDays)

		report(StageDepositing, 30, fmt.Sprintf("Depositing %s USDFC to cover storage costs", FormatUSDFC(deposit)), "")
		depositTx, err := p.payments.Deposit(ctx, deposit)
		if err != nil {
			p.saveLocalOnly(prompt)
			report(StageError, 0, "Deposit failed", "")
			return &StoreResult{Stage: StageError, LocalOnly: true}, fmt.Errorf("%w: deposit: %v", ErrPayment, err)
		}
		report(StageDepositing, 50, "USDFC deposited", depositTx)

		report(StageApproving, 60, "Approving storage service spending", "")
		approveTx, err := p.payments.ApproveService(ctx, p.warmStorageAddress,
			preflight.EstimatedCost.PerEpoch, deposit, deposit)
		if err != nil {
			p.saveLocalOnly(prompt)
			report(StageError, 0, "Service approval failed", "")
			return &StoreResult{Stage: StageError, LocalOnly: true}, fmt.Errorf("%w: approve service: %v", ErrPayment, err)
		}
		report(StageApproving, 70, "Storage service approved", approveTx)
	}

	report(StageUploading, 80, "Uploading prompt to Filecoin", "")

	cid, err := p.storage.Upload(ctx, data)
	if err != nil {
		p.saveLocalOnly(prompt)
		report(StageError, 0, "Upload failed, prompt saved locally", "")
		return &StoreResult{Stage: StageError, LocalOnly: true}, fmt.Errorf("%w: upload: %v", ErrLocalFallback, err)
	}

	report(StageConfirming, 90, "Recording piece CID", "")

	if err := p.db.AppendWalletCID(prompt.UserID, cid); err != nil {
		return &StoreResult{Stage: StageError, CID: cid}, fmt.Errorf("failed to index cid: %w", err)
	}

	prompt.CID = cid
	prompt.FilecoinURL = p.storage.PieceURL(cid)
	if err := p.db.UpsertPrompt(prompt); err != nil {
		return &StoreResult{Stage: StageError, CID: cid}, fmt.Errorf("failed to save prompt: %w", err)
	}

	report(StageCompleted, 100, "Prompt stored on Filecoin", "")

	return &StoreResult{
		Stage:       StageCompleted,
		CID:         cid,
		FilecoinURL: prompt.FilecoinURL,
	}, nil
}

// RetrievePrompt downloads a stored prompt by piece CID.
func (p *Pipeline) RetrievePrompt(ctx context.Context, cid string) (*models.UserPrompt, error) {
	data, err := p.storage.Download(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve prompt: %w", err)
	}

	var prompt models.UserPrompt
	if err := json.Unmarshal(data, &prompt); err != nil {
		return nil, fmt.Errorf("failed to decode stored prompt: %w", err)
	}
	return &prompt, nil
}

// PayForStorage runs the one-time payment covering 10 GB for 30 days. The
// preflight API caps estimable sizes, so costs are computed for a 100 MB
// sample and scaled with a ceiling multiplier.
func (p *Pipeline) PayForStorage(ctx context.Context, onProgress ProgressFunc) (*PaymentResult, error) {
	report := func(stage Stage, progress int, message, txHash string) {
		if onProgress != nil {
			onProgress(Progress{Stage: stage, Progress: progress, Message: message, TxHash: txHash})
		}
	}

	if p.payments == nil {
		return nil, fmt.Errorf("%w: no signing key configured", ErrPayment)
	}

	report(StagePreparing, 10, "Calculating storage costs", "")

	preflight, err := p.storage.PreflightUpload(ctx, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate storage cost: %w", err)
	}

	scaled := ScaleCosts(preflight.EstimatedCost, sampleSize, targetSize)
	deposit := DepositForDays(scaled, persistenceDays)

	report(StageDepositing, 30, fmt.Sprintf("Depositing %s USDFC", FormatUSDFC(deposit)), "")

	depositTx, err := p.payments.Deposit(ctx, deposit)
	if err != nil {
		report(StageError, 0, "Deposit failed", "")
		return nil, fmt.Errorf("%w: deposit: %v", ErrPayment, err)
	}
	report(StageDepositing, 70, "USDFC deposited", depositTx)

	report(StageApproving, 85, "Approving storage service", "")

	approveTx, err := p.payments.ApproveService(ctx, p.warmStorageAddress, scaled.PerEpoch, deposit, deposit)
	if err != nil {
		report(StageError, 0, "Service approval failed", "")
		return nil, fmt.Errorf("%w: approve service: %v", ErrPayment, err)
	}

	report(StageCompleted, 100, "Storage payment completed", approveTx)

	return &PaymentResult{
		DepositAmount: deposit,
		StorageGB:     int(targetSize / (1024 * 1024 * 1024)),
		DurationDays:  persistenceDays,
		TxHash:        approveTx,
	}, nil
}

func (p *Pipeline) waitForSigner(ctx context.Context) error {
	if p.signerReady == nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= signerAttempts; attempt++ {
		if lastErr = p.signerReady(ctx); lastErr == nil {
			return nil
		}
		if attempt < signerAttempts {
			p.sleep(signerRetryDelay)
		}
	}
	return lastErr
}

// saveLocalOnly persists the prompt without a CID so the generation flow
// survives a failed Filecoin store. Errors here are deliberately dropped;
// fallback persistence must not mask the original failure.
func (p *Pipeline) saveLocalOnly(prompt *models.UserPrompt) {
	local := *prompt
	local.CID = ""
	local.FilecoinURL = ""
	_ = p.db.UpsertPrompt(&local)
}

// ScaleCosts linearly extrapolates a sample estimate to a larger target
// using a ceiling multiplier.
func ScaleCosts(costs synapse.Costs, sample, target int64) synapse.Costs {
	k := big.NewInt((target + sample - 1) / sample)
	return synapse.Costs{
		PerEpoch: new(big.Int).Mul(costs.PerEpoch, k),
		PerDay:   new(big.Int).Mul(costs.PerDay, k),
		PerMonth: new(big.Int).Mul(costs.PerMonth, k),
	}
}

// DepositForDays returns the deposit covering the given number of days at
// the estimated per-day cost.
func DepositForDays(costs synapse.Costs, days int64) *big.Int {
	return new(big.Int).Mul(costs.PerDay, big.NewInt(days))
}

// FormatUSDFC renders an attoUSDFC amount as a decimal string with 4
// fractional digits.
func FormatUSDFC(amount *big.Int) string {
	s := amount.String()
	if len(s) <= 18 {
		padded := fmt.Sprintf("%018s", s)
		return "0." + padded[:4]
	}
	intPart := s[:len(s)-18]
	return intPart + "." + s[len(s)-18:len(s)-14]
}
