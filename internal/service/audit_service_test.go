package service

import (
	"context"
	"encoding/json"
	"testing"

	"invoicehub/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuditLogs_FiltersByAction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	audit := NewAuditService(memAuditRepo{h.store})

	a := h.client(t, "Alpha", "")
	h.client(t, "Beta", "")
	_, err := h.clients.ArchiveClient(ctx, h.owner, a.ID)
	require.NoError(t, err)

	all, total, err := audit.GetAuditLogs(ctx, h.owner, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	created, total, err := audit.GetAuditLogs(ctx, h.owner, model.ActionCreateClient, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, l := range created {
		assert.Equal(t, model.ActionCreateClient, l.Action)
		assert.NotEmpty(t, l.CreatedAt)
	}

	archived, total, err := audit.GetAuditLogs(ctx, h.owner, model.ActionArchiveClient, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, archived, 1)
	assert.Equal(t, a.ID, archived[0].EntityID)
	assert.Equal(t, "Alpha", archived[0].EntityName)
	var details map[string]string
	require.NoError(t, json.Unmarshal([]byte(archived[0].Details), &details))
	assert.Equal(t, model.ClientStatusArchived, details["status"])

	none, total, err := audit.GetAuditLogs(ctx, h.owner, model.ActionDeleteInvoice, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestGetAuditLogs_ScopedToOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	audit := NewAuditService(memAuditRepo{h.store})
	h.client(t, "Alpha", "")

	logs, total, err := audit.GetAuditLogs(ctx, uuid.New(), "", 1, 20)

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
}
