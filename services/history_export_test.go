package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/services"
)

func TestExportHistoryWorkbook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "export", models.RestaurantSettings{})
	table := env.addTable(t, restaurant.ID, "1", 4)

	alice := env.join(t, restaurant.ID, "alice", 2).Entry
	bob := env.join(t, restaurant.ID, "bob", 6).Entry
	_, err := env.seating.Seat(ctx, restaurant.ID, alice.ID, table.ID)
	require.NoError(t, err)
	_, err = env.seating.Seat(ctx, restaurant.ID, bob.ID, "")
	require.NoError(t, err)

	data, err := env.exporter.Export(ctx, restaurant.ID, 30)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"History"}, f.GetSheetList())

	headerStyle, err := f.GetCellStyle("History", "M1")
	require.NoError(t, err)
	assert.NotZero(t, headerStyle)
	width, err := f.GetColWidth("History", "M")
	require.NoError(t, err)
	assert.Equal(t, 18.0, width)

	rows, err := f.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Queue ID", rows[0][0])
	assert.Equal(t, "Peak Time", rows[0][12])

	assert.Equal(t, alice.ID, rows[1][0])
	assert.Equal(t, "alice", rows[1][1])
	assert.Equal(t, "2", rows[1][3])
	assert.Equal(t, table.ID, rows[1][6])
	assert.Equal(t, "2024-03-08 18:00", rows[1][7])
	assert.Equal(t, "Friday", rows[1][9])

	assert.Equal(t, bob.ID, rows[2][0])
	assert.Equal(t, "", rows[2][6])
}

func TestExportHistoryValidatesDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "export-days", models.RestaurantSettings{})

	for _, days := range []int{0, -1, 366} {
		_, err := env.exporter.Export(ctx, restaurant.ID, days)
		assert.ErrorIs(t, err, services.ErrValidation)
	}

	data, err := env.exporter.Export(ctx, restaurant.ID, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
