package storage

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base0-backend/internal/database"
	"base0-backend/internal/models"
	"base0-backend/internal/synapse"
)

type fakeStorage struct {
	preflight    *synapse.PreflightResult
	preflightErr error
	uploadCID    string
	uploadErr    error
	uploads      int
	stored       []byte
}

func (f *fakeStorage) PreflightUpload(ctx context.Context, size int64) (*synapse.PreflightResult, error) {
	if f.preflightErr != nil {
		return nil, f.preflightErr
	}
	return f.preflight, nil
}

func (f *fakeStorage) Upload(ctx context.Context, data []byte) (string, error) {
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.stored = data
	return f.uploadCID, nil
}

func (f *fakeStorage) Download(ctx context.Context, pieceCid string) ([]byte, error) {
	return f.stored, nil
}

func (f *fakeStorage) PieceURL(pieceCid string) string {
	return "https://api.synapse.storage/piece/" + pieceCid
}

type fakePayments struct {
	depositErr error
	approveErr error
	deposits   []*big.Int
	approvals  int
}

func (f *fakePayments) Deposit(ctx context.Context, amount *big.Int) (string, error) {
	if f.depositErr != nil {
		return "", f.depositErr
	}
	f.deposits = append(f.deposits, amount)
	return "0xdeposit", nil
}

func (f *fakePayments) ApproveService(ctx context.Context, service string, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int) (string, error) {
	if f.approveErr != nil {
		return "", f.approveErr
	}
	f.approvals++
	return "0xapprove", nil
}

func testDB(t *testing.T) *database.Client {
	t.Helper()
	db, err := database.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db.DB()).Run())
	return db
}

func testCosts() synapse.Costs {
	return synapse.Costs{
		PerEpoch: big.NewInt(10),
		PerDay:   big.NewInt(1000),
		PerMonth: big.NewInt(30000),
	}
}

func testPipeline(t *testing.T, storageSvc *fakeStorage, payments *fakePayments) (*Pipeline, *database.Client) {
	db := testDB(t)
	p := NewPipeline(storageSvc, payments, db, "0xwarm")
	p.sleep = func(time.Duration) {}
	return p, db
}

func testPrompt() *models.UserPrompt {
	return &models.UserPrompt{
		ID:        "prompt-1",
		UserID:    "0x1111111111111111111111111111111111111111",
		Prompt:    "a cat",
		Timestamp: 1700000000000,
	}
}

func TestStorePrompt_Success(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: true},
		uploadCID: "baga6ea4seaqtest",
	}
	p, db := testPipeline(t, storageSvc, &fakePayments{})

	prompt := testPrompt()
	var stages []Stage
	result, err := p.StorePrompt(context.Background(), prompt, func(pr Progress) {
		stages = append(stages, pr.Stage)
	})

	require.NoError(t, err)
	assert.Equal(t, StageCompleted, result.Stage)
	assert.Equal(t, "baga6ea4seaqtest", result.CID)
	assert.Equal(t, "https://api.synapse.storage/piece/baga6ea4seaqtest", result.FilecoinURL)
	assert.Contains(t, stages, StageUploading)
	assert.Contains(t, stages, StageCompleted)

	cids, err := db.GetWalletCIDs(prompt.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"baga6ea4seaqtest"}, cids)

	saved, err := db.GetPrompt(prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, "baga6ea4seaqtest", saved.CID)
}

func TestStorePrompt_DepositRevertBlocksUpload(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: false},
		uploadCID: "baga6ea4seaqtest",
	}
	payments := &fakePayments{depositErr: errors.New("execution reverted")}
	p, db := testPipeline(t, storageSvc, payments)

	prompt := testPrompt()
	result, err := p.StorePrompt(context.Background(), prompt, nil)

	assert.ErrorIs(t, err, ErrPayment)
	assert.Equal(t, StageError, result.Stage)
	assert.True(t, result.LocalOnly)
	assert.Zero(t, storageSvc.uploads)

	// No CID record may exist; the prompt is saved local-only.
	cids, err := db.GetWalletCIDs(prompt.UserID)
	require.NoError(t, err)
	assert.Empty(t, cids)

	saved, err := db.GetPrompt(prompt.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.CID)
	assert.Empty(t, saved.FilecoinURL)
}

func TestStorePrompt_ApproveFailureBlocksUpload(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: false},
	}
	payments := &fakePayments{approveErr: errors.New("execution reverted")}
	p, _ := testPipeline(t, storageSvc, payments)

	_, err := p.StorePrompt(context.Background(), testPrompt(), nil)
	assert.ErrorIs(t, err, ErrPayment)
	assert.Zero(t, storageSvc.uploads)
}

func TestStorePrompt_UploadFailureFallsBackLocally(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: true},
		uploadErr: errors.New("connection reset"),
	}
	p, db := testPipeline(t, storageSvc, &fakePayments{})

	prompt := testPrompt()
	result, err := p.StorePrompt(context.Background(), prompt, nil)

	assert.ErrorIs(t, err, ErrLocalFallback)
	assert.True(t, result.LocalOnly)

	saved, err := db.GetPrompt(prompt.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.CID)
}

func TestStorePrompt_SignerRetriesThenFallsBack(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: true},
		uploadCID: "baga6ea4seaqtest",
	}
	p, db := testPipeline(t, storageSvc, &fakePayments{})

	checks := 0
	p.SetSignerCheck(func(ctx context.Context) error {
		checks++
		return errors.New("signer not ready")
	})

	prompt := testPrompt()
	result, err := p.StorePrompt(context.Background(), prompt, nil)

	assert.ErrorIs(t, err, ErrSignerTiming)
	assert.True(t, result.LocalOnly)
	assert.Equal(t, signerAttempts, checks)
	assert.Zero(t, storageSvc.uploads)

	saved, err := db.GetPrompt(prompt.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.CID)
}

func TestStorePrompt_SignerRecovers(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: true},
		uploadCID: "baga6ea4seaqtest",
	}
	p, _ := testPipeline(t, storageSvc, &fakePayments{})

	checks := 0
	p.SetSignerCheck(func(ctx context.Context) error {
		checks++
		if checks < 2 {
			return errors.New("signer not ready")
		}
		return nil
	})

	result, err := p.StorePrompt(context.Background(), testPrompt(), nil)
	require.NoError(t, err)
	assert.Equal(t, StageCompleted, result.Stage)
}

func TestPayForStorage_ScalesAndDeposits(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts()},
	}
	payments := &fakePayments{}
	p, _ := testPipeline(t, storageSvc, payments)

	result, err := p.PayForStorage(context.Background(), nil)
	require.NoError(t, err)

	// 10 GiB target over a 100 MiB sample scales by ceil(10240/100) = 103.
	wantPerDay := new(big.Int).Mul(big.NewInt(1000), big.NewInt(103))
	wantDeposit := new(big.Int).Mul(wantPerDay, big.NewInt(30))

	require.Len(t, payments.deposits, 1)
	assert.Zero(t, wantDeposit.Cmp(payments.deposits[0]))
	assert.Zero(t, wantDeposit.Cmp(result.DepositAmount))
	assert.Equal(t, 10, result.StorageGB)
	assert.Equal(t, 30, result.DurationDays)
	assert.Equal(t, 1, payments.approvals)
	assert.Equal(t, "0xapprove", result.TxHash)
}

func TestPayForStorage_DepositFailure(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts()},
	}
	payments := &fakePayments{depositErr: errors.New("insufficient funds")}
	p, _ := testPipeline(t, storageSvc, payments)

	_, err := p.PayForStorage(context.Background(), nil)
	assert.ErrorIs(t, err, ErrPayment)
}

func TestScaleCosts_CeilingMultiplier(t *testing.T) {
	costs := synapse.Costs{
		PerEpoch: big.NewInt(7),
		PerDay:   big.NewInt(100),
		PerMonth: big.NewInt(3000),
	}

	scaled := ScaleCosts(costs, 100, 250)

	// ceil(250/100) = 3
	assert.Zero(t, big.NewInt(21).Cmp(scaled.PerEpoch))
	assert.Zero(t, big.NewInt(300).Cmp(scaled.PerDay))
	assert.Zero(t, big.NewInt(9000).Cmp(scaled.PerMonth))
}

func TestScaleCosts_ExactMultiple(t *testing.T) {
	costs := synapse.Costs{
		PerEpoch: big.NewInt(1),
		PerDay:   big.NewInt(100),
		PerMonth: big.NewInt(3000),
	}

	scaled := ScaleCosts(costs, 100, 200)
	assert.Zero(t, big.NewInt(200).Cmp(scaled.PerDay))
}

func TestDepositForDays(t *testing.T) {
	deposit := DepositForDays(synapse.Costs{PerDay: big.NewInt(250)}, 30)
	assert.Zero(t, big.NewInt(7500).Cmp(deposit))
}

func TestFormatUSDFC(t *testing.T) {
	one, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal(t, "1.0000", FormatUSDFC(one))

	half, _ := new(big.Int).SetString("500000000000000000", 10)
	assert.Equal(t, "0.5000", FormatUSDFC(half))

	small := big.NewInt(42)
	assert.Equal(t, "0.0000", FormatUSDFC(small))
}

func TestRetrievePrompt_RoundTrip(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: true},
		uploadCID: "baga6ea4seaqtest",
	}
	p, _ := testPipeline(t, storageSvc, &fakePayments{})

	prompt := testPrompt()
	_, err := p.StorePrompt(context.Background(), prompt, nil)
	require.NoError(t, err)

	got, err := p.RetrievePrompt(context.Background(), "baga6ea4seaqtest")
	require.NoError(t, err)
	assert.Equal(t, prompt.ID, got.ID)
	assert.Equal(t, prompt.Prompt, got.Prompt)
}

func TestStorePrompt_NoPaymentsConfigured(t *testing.T) {
	storageSvc := &fakeStorage{
		preflight: &synapse.PreflightResult{EstimatedCost: testCosts(), AllowanceSufficient: false},
	}
	db := testDB(t)
	p := NewPipeline(storageSvc, nil, db, "0xwarm")
	p.sleep = func(time.Duration) {}

	_, err := p.StorePrompt(context.Background(), testPrompt(), nil)
	assert.ErrorIs(t, err, ErrPayment)
}
