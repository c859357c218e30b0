package repository

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-hub/botengine/domain"
	"github.com/AzielCF/az-hub/pkg/crypto"
	"github.com/AzielCF/az-hub/pkg/timeutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require.NoError(t, crypto.SetEncryptionKey("0123456789abcdef0123456789abcdef"))

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	repo := NewChatbotGormRepository(db)
	require.NoError(t, repo.InitSchema(context.Background()))
	return db
}

func TestConfigRoundTrip_EncryptsAPIKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatbotGormRepository(db)
	ctx := context.Background()

	cfg := &domain.ChatbotConfig{
		TenantID:    "t1",
		InstanceID:  "i1",
		Active:      true,
		CompanyName: "Clínica Sorriso",
		Provider:    domain.ProviderOpenAI,
		APIKey:      "sk-secreta",
		Transfers: []domain.TransferTarget{
			{Label: "Ventas", Number: "+55 11 99999-9999", Active: true},
		},
		Periodicity: timeutils.PeriodMonthly,
	}
	require.NoError(t, repo.Create(ctx, cfg))

	// La key jamás queda en claro en la fila.
	var stored string
	require.NoError(t, db.Raw("SELECT encrypted_api_key FROM chatbot_configs WHERE id = ?", cfg.ID).Scan(&stored).Error)
	assert.NotEmpty(t, stored)
	assert.NotContains(t, stored, "sk-secreta")

	loaded, err := repo.GetByInstance(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "sk-secreta", loaded.APIKey)
	require.Len(t, loaded.Transfers, 1)
	assert.Equal(t, "Ventas", loaded.Transfers[0].Label)
}

func TestIncrementConversations_SameBucket(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatbotGormRepository(db)
	ctx := context.Background()

	cfg := &domain.ChatbotConfig{
		TenantID: "t1", InstanceID: "i1",
		Periodicity:   timeutils.PeriodMonthly,
		LastResetDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, cfg))
	// Create pisa LastResetDate solo si viene en cero; forzamos el valor.
	require.NoError(t, db.Model(&chatbotConfigModel{}).Where("id = ?", cfg.ID).
		Update("last_reset_date", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)).Error)

	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	count, err := repo.IncrementConversations(ctx, cfg.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.IncrementConversations(ctx, cfg.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count, "mismo bucket: el contador sigue")
}

func TestIncrementConversations_MonthlyRollover(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatbotGormRepository(db)
	ctx := context.Background()

	cfg := &domain.ChatbotConfig{
		TenantID: "t1", InstanceID: "i1",
		Periodicity: timeutils.PeriodMonthly,
	}
	require.NoError(t, repo.Create(ctx, cfg))
	require.NoError(t, db.Model(&chatbotConfigModel{}).Where("id = ?", cfg.ID).Updates(map[string]any{
		"last_reset_date":     time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC),
		"conversations_count": 40,
		"current_tokens_used": int64(90000),
	}).Error)

	// 31 de enero a 1 de febrero: cambia el bucket mensual.
	now := time.Date(2025, 2, 1, 0, 30, 0, 0, time.UTC)
	count, err := repo.IncrementConversations(ctx, cfg.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "rollover: arranca de cero y cuenta esta conversación")

	loaded, err := repo.GetByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), loaded.CurrentTokensUsed, "los tokens también se resetean")
	assert.Equal(t, now, loaded.LastResetDate.UTC())
}

func TestContacts_GetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	contacts := NewContactGormRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first, created, err := contacts.GetOrCreate(ctx, "cfg1", "jid@s.whatsapp.net", now)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := contacts.GetOrCreate(ctx, "cfg1", "jid@s.whatsapp.net", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestCatalog_ListAccessibleTrimsDescriptions(t *testing.T) {
	db := newTestDB(t)
	catalog := NewMediaCatalogGormRepository(db)
	ctx := context.Background()

	long := make([]rune, domain.MaxCatalogDescChars+50)
	for i := range long {
		long[i] = 'd'
	}
	require.NoError(t, catalog.Create(ctx, &domain.ChatbotMedia{
		ConfigID: "cfg1", MediaFileID: "m1", Kind: "image",
		Description: string(long), IsAccessibleByAI: true,
	}))
	require.NoError(t, catalog.Create(ctx, &domain.ChatbotMedia{
		ConfigID: "cfg1", MediaFileID: "m2", Kind: "document",
		Description: "oculto", IsAccessibleByAI: false,
	}))

	list, err := catalog.ListAccessible(ctx, "cfg1")
	require.NoError(t, err)
	require.Len(t, list, 1, "solo lo accesible por la IA")
	assert.Len(t, []rune(list[0].Description), domain.MaxCatalogDescChars)
}
