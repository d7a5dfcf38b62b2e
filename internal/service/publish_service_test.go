package service_test

import (
	"context"
	"testing"

	"github.com/marketpaper/quote-api/internal/config"
	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/pricing"
	"github.com/marketpaper/quote-api/internal/repository"
	"github.com/marketpaper/quote-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testCRMConfig() config.CRMConfig {
	return config.CRMConfig{
		Pipeline:         "quotes",
		InitialStage:     "nuevo",
		QuoteSentStage:   "presupuesto_enviado",
		PurgeConcurrency: 2,
	}
}

func setupQuoteRepo(t *testing.T) *repository.QuoteRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Quote{}, &domain.LineItem{}))
	return repository.NewQuoteRepository(db)
}

func newPublishService(store *fakeStore, repo *repository.QuoteRepository) *service.PublishService {
	log := zap.NewNop()
	sync := service.NewSyncService(store, 2, log)
	return service.NewPublishService(repo, store, sync, testCRMConfig(), log)
}

func storedQuote(t *testing.T, repo *repository.QuoteRepository, pending bool) *domain.Quote {
	t.Helper()
	quote := &domain.Quote{
		ClientName:       "Acme SA",
		ClientEmail:      "compras@acme.test",
		PaymentTermsText: "Echeq 30 días",
		Items: []domain.LineItem{
			{
				BoxStyle:       domain.BoxStyleSheet,
				LengthMm:       1000,
				WidthMm:        1000,
				Quantity:       10,
				UnitPriceInput: 100,
				MarkupFactor:   1,
				QuotePending:   pending,
			},
		},
	}
	totals := pricing.Recompute(quote.Items)
	quote.Subtotal = totals.Subtotal
	quote.TaxAmount = totals.TaxAmount
	quote.Total = totals.Total
	quote.TotalAreaSqm = totals.TotalAreaSqm
	require.NoError(t, repo.Create(context.Background(), quote))
	return quote
}

func TestPublish_PatchesPropertiesAndSyncs(t *testing.T) {
	store := newFakeStore()
	store.putObject(crm.ObjectTypeDeal, "42", map[string]string{crm.PropPipeline: "quotes"})
	repo := setupQuoteRepo(t)
	quote := storedQuote(t, repo, false)

	svc := newPublishService(store, repo)
	result, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{
		QuoteID:             quote.ID,
		MoveStageIfComplete: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "42", result.DealID)
	assert.True(t, result.StageAdvanced)
	assert.False(t, result.HasPending)
	require.NotNil(t, result.Sync)
	assert.False(t, result.Sync.Skipped)
	assert.Equal(t, 1, result.Sync.Created)

	require.NotEmpty(t, store.patches)
	props := store.patches[0].Properties
	assert.Equal(t, "Acme SA", props[crm.PropClientName])
	assert.Equal(t, "1000", props[crm.PropTotalSubtotal])
	assert.Equal(t, "210", props[crm.PropTotalTax])
	assert.Equal(t, "1210", props[crm.PropTotalFinal])
	assert.Equal(t, "10", props[crm.PropTotalAreaSqm])
	assert.Equal(t, "false", props[crm.PropHasPendingItems])
	assert.Equal(t, "presupuesto_enviado", props[crm.PropDealStage])
	assert.Equal(t, "1210", props[crm.PropAmount])

	items, err := domain.DecodeItems(props[crm.PropItemsJSON])
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
	assert.Equal(t, 1000.0, items[0].Subtotal)
}

func TestPublish_PendingItemsBlockStageAdvance(t *testing.T) {
	store := newFakeStore()
	store.putObject(crm.ObjectTypeDeal, "42", map[string]string{crm.PropPipeline: "quotes"})
	repo := setupQuoteRepo(t)
	quote := storedQuote(t, repo, true)

	svc := newPublishService(store, repo)
	result, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{
		QuoteID:             quote.ID,
		MoveStageIfComplete: true,
	})
	require.NoError(t, err)

	assert.False(t, result.StageAdvanced)
	assert.True(t, result.HasPending)

	require.NotEmpty(t, store.patches)
	_, hasStage := store.patches[0].Properties[crm.PropDealStage]
	assert.False(t, hasStage, "stage must not be written while items are pending")
	assert.Equal(t, "true", store.patches[0].Properties[crm.PropHasPendingItems])
	assert.Equal(t, "0", store.patches[0].Properties[crm.PropTotalSubtotal])
	// pending items still carry their area
	assert.Equal(t, "10", store.patches[0].Properties[crm.PropTotalAreaSqm])
}

func TestPublish_OutsidePipelineSkipsSync(t *testing.T) {
	store := newFakeStore()
	store.putObject(crm.ObjectTypeDeal, "42", map[string]string{crm.PropPipeline: "otra"})
	repo := setupQuoteRepo(t)
	quote := storedQuote(t, repo, false)

	svc := newPublishService(store, repo)
	result, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{QuoteID: quote.ID})
	require.NoError(t, err)

	require.NotNil(t, result.Sync)
	assert.True(t, result.Sync.Skipped)
	assert.Empty(t, result.Sync.Error)
	assert.Empty(t, store.creates)
	// the property patch still happened
	require.NotEmpty(t, store.patches)
}

func TestPublish_SyncFailureReportedNotSkipped(t *testing.T) {
	store := newFakeStore()
	store.putObject(crm.ObjectTypeDeal, "42", map[string]string{crm.PropPipeline: "quotes"})
	store.putAssociations(crm.ObjectTypeDeal, "42", crm.ObjectTypeLineItem, []string{"li-1"})
	store.deleteErr = func(id string) error {
		return &crm.RemoteError{StatusCode: 500, Body: "internal error"}
	}
	repo := setupQuoteRepo(t)
	quote := storedQuote(t, repo, false)

	svc := newPublishService(store, repo)
	result, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{QuoteID: quote.ID})
	require.NoError(t, err)

	// An attempted sync that broke is not a skip: the report carries
	// the failure so callers can tell the two apart.
	require.NotNil(t, result.Sync)
	assert.False(t, result.Sync.Skipped)
	assert.NotEmpty(t, result.Sync.Error)
	assert.Zero(t, result.Sync.Created)
	require.NotEmpty(t, store.patches)
}

func TestPublish_BindsQuoteToDeal(t *testing.T) {
	store := newFakeStore()
	store.putObject(crm.ObjectTypeDeal, "42", map[string]string{crm.PropPipeline: "quotes"})
	repo := setupQuoteRepo(t)
	quote := storedQuote(t, repo, false)
	require.Empty(t, quote.DealID)

	svc := newPublishService(store, repo)
	_, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{QuoteID: quote.ID})
	require.NoError(t, err)

	// republish without an explicit quote id resolves via the binding
	result, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, "42", result.DealID)
}

func TestPublish_MissingQuote(t *testing.T) {
	store := newFakeStore()
	repo := setupQuoteRepo(t)

	svc := newPublishService(store, repo)
	_, err := svc.Publish(context.Background(), "42", &domain.PublishQuoteRequest{})
	assert.ErrorIs(t, err, service.ErrQuoteNotFound)
}

func TestRecalculateDealAreas(t *testing.T) {
	store := newFakeStore()

	drifted := &domain.Quote{Items: []domain.LineItem{
		{BoxStyle: domain.BoxStyleSheet, LengthMm: 1000, WidthMm: 1000, Quantity: 5},
	}}
	itemsJSON, err := domain.EncodeItems(drifted.Items)
	require.NoError(t, err)

	store.putObject(crm.ObjectTypeDeal, "1", map[string]string{
		crm.PropItemsJSON: itemsJSON, crm.PropTotalAreaSqm: "99",
	})
	store.putObject(crm.ObjectTypeDeal, "2", map[string]string{
		crm.PropItemsJSON: itemsJSON, crm.PropTotalAreaSqm: "5",
	})
	store.putObject(crm.ObjectTypeDeal, "3", map[string]string{})

	store.searchFn = func(req crm.SearchRequest) (*crm.SearchResult, error) {
		return &crm.SearchResult{Results: []crm.Object{
			*store.objects[crm.ObjectTypeDeal]["1"],
			*store.objects[crm.ObjectTypeDeal]["2"],
			*store.objects[crm.ObjectTypeDeal]["3"],
		}}, nil
	}

	repo := setupQuoteRepo(t)
	svc := newPublishService(store, repo)
	result, err := svc.RecalculateDealAreas(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Failed)

	require.Len(t, store.patches, 1)
	assert.Equal(t, "1", store.patches[0].ID)
	assert.Equal(t, "5", store.patches[0].Properties[crm.PropTotalAreaSqm])
}
