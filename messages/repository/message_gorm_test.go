package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/AzielCF/az-hub/messages/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *MessageGormRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	repo := NewMessageGormRepository(db)
	require.NoError(t, repo.InitSchema(context.Background()))
	return repo
}

func TestSave_DeduplicatesWAMID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	msg := &domain.Message{
		InstanceID: "i1",
		RemoteJID:  "5511999@s.whatsapp.net",
		WAMID:      "WAMID-1",
		Kind:       domain.KindText,
		Content:    "hola",
	}
	require.NoError(t, repo.Save(ctx, msg))

	// Reintento del bridge con el mismo wamid: se ignora en silencio.
	dup := &domain.Message{
		InstanceID: "i1",
		RemoteJID:  "5511999@s.whatsapp.net",
		WAMID:      "WAMID-1",
		Kind:       domain.KindText,
		Content:    "hola otra vez",
	}
	require.NoError(t, repo.Save(ctx, dup))

	list, err := repo.List(ctx, "i1", "5511999@s.whatsapp.net", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "hola", list[0].Content)
}

func TestSave_AllowsSameWAMIDAcrossInstances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, instance := range []string{"i1", "i2"} {
		require.NoError(t, repo.Save(ctx, &domain.Message{
			InstanceID: instance,
			RemoteJID:  "jid@s.whatsapp.net",
			WAMID:      "SHARED",
			Kind:       domain.KindText,
			Content:    "x",
		}))
	}

	for _, instance := range []string{"i1", "i2"} {
		list, err := repo.List(ctx, instance, "jid@s.whatsapp.net", 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
}

func TestSave_EmptyWAMIDNeverCollides(t *testing.T) {
	// Los mensajes sintéticos del bot no traen wamid; nunca deben chocar.
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, &domain.Message{
			InstanceID: "i1",
			RemoteJID:  "jid@s.whatsapp.net",
			FromMe:     true,
			Kind:       domain.KindText,
			Content:    fmt.Sprintf("bot %d", i),
		}))
	}

	list, err := repo.List(ctx, "i1", "jid@s.whatsapp.net", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRecent_ChronologicalAndTruncated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	long := strings.Repeat("a", domain.MaxContentChars+100)
	for i := 0; i < 40; i++ {
		content := fmt.Sprintf("msg %02d", i)
		if i == 39 {
			content = long
		}
		require.NoError(t, repo.Save(ctx, &domain.Message{
			InstanceID: "i1",
			RemoteJID:  "jid@s.whatsapp.net",
			WAMID:      fmt.Sprintf("W%d", i),
			Kind:       domain.KindText,
			Content:    content,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.Recent(ctx, "i1", "jid@s.whatsapp.net", 0)
	require.NoError(t, err)
	require.Len(t, entries, 30, "el historial se acota a 30")

	// Orden cronológico: la primera entrada es la más vieja de la ventana.
	assert.Equal(t, "msg 10", entries[0].Content)
	assert.Len(t, entries[29].Content, domain.MaxContentChars, "contenido recortado")
}

func TestRecent_IsolatedPerChat(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Message{
		InstanceID: "i1", RemoteJID: "a@s.whatsapp.net", WAMID: "W1", Content: "chat a",
	}))
	require.NoError(t, repo.Save(ctx, &domain.Message{
		InstanceID: "i1", RemoteJID: "b@s.whatsapp.net", WAMID: "W2", Content: "chat b",
	}))

	entries, err := repo.Recent(ctx, "i1", "a@s.whatsapp.net", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chat a", entries[0].Content)
}

func TestRecent_SkipsEmptyContent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	// Un sticker o media sin caption queda con contenido vacío: no debe
	// ocupar lugar en la ventana ni meter turnos vacíos al proveedor.
	contents := []string{"primero", "", "", "último"}
	for i, content := range contents {
		require.NoError(t, repo.Save(ctx, &domain.Message{
			InstanceID: "i-empty",
			RemoteJID:  "jid@s.whatsapp.net",
			WAMID:      fmt.Sprintf("WE%d", i),
			Kind:       domain.KindText,
			Content:    content,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.Recent(ctx, "i-empty", "jid@s.whatsapp.net", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "primero", entries[0].Content)
	assert.Equal(t, "último", entries[1].Content)
}

func TestRecent_TruncatesOnRuneBoundary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Message{
		InstanceID: "i-runes",
		RemoteJID:  "jid@s.whatsapp.net",
		WAMID:      "WR1",
		Kind:       domain.KindText,
		Content:    strings.Repeat("ã", domain.MaxContentChars+50),
	}))

	entries, err := repo.Recent(ctx, "i-runes", "jid@s.whatsapp.net", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.MaxContentChars, utf8.RuneCountInString(entries[0].Content))
	assert.True(t, utf8.ValidString(entries[0].Content), "el recorte no puede partir una runa")
}
