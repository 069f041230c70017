package memrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasel/courierhub/internal/service"
	"github.com/wasel/courierhub/pkg/courier"
)

func sampleRecord(waybill string) *service.Record {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &service.Record{
		Waybill:         waybill,
		TrackingNumber:  waybill,
		ReferenceNumber: "REF001",
		Provider:        courier.ProviderMock,
		Status:          courier.StatusCreated,
		Currency:        "SAR",
		CreatedAt:       now,
		UpdatedAt:       now,
		Events: []courier.TrackingEvent{
			{
				Timestamp:   now,
				Status:      courier.StatusCreated,
				Description: "Shipment created successfully",
				Location:    "Riyadh",
			},
		},
	}
}

func TestRepoSaveGet(t *testing.T) {
	repo := New()

	require.NoError(t, repo.Save(context.Background(), sampleRecord("WB001")))

	got, found, err := repo.Get(context.Background(), "WB001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "WB001", got.Waybill)
	assert.Equal(t, courier.StatusCreated, got.Status)
	assert.Len(t, got.Events, 1)
}

func TestRepoGetUnknown(t *testing.T) {
	repo := New()

	got, found, err := repo.Get(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRepoSaveOverwrites(t *testing.T) {
	repo := New()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleRecord("WB002")))

	updated := sampleRecord("WB002")
	updated.Status = courier.StatusDelivered
	require.NoError(t, repo.Save(ctx, updated))

	got, found, err := repo.Get(ctx, "WB002")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, courier.StatusDelivered, got.Status)
}

func TestRepoCopySemantics(t *testing.T) {
	repo := New()
	ctx := context.Background()

	original := sampleRecord("WB003")
	require.NoError(t, repo.Save(ctx, original))

	original.Status = courier.StatusLost
	original.Events[0].Description = "tampered"

	got, _, err := repo.Get(ctx, "WB003")
	require.NoError(t, err)
	assert.Equal(t, courier.StatusCreated, got.Status)
	assert.Equal(t, "Shipment created successfully", got.Events[0].Description)

	got.Events = append(got.Events, courier.TrackingEvent{Status: courier.StatusInTransit})

	fresh, _, err := repo.Get(ctx, "WB003")
	require.NoError(t, err)
	assert.Len(t, fresh.Events, 1)
}
