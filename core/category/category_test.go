package category_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/category"
	"github.com/speakhq/speakadmin/services/events"
	logsvc "github.com/speakhq/speakadmin/services/logger"
	inmemdb "github.com/speakhq/speakadmin/storage/database/inmem"
)

func TestService(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := events.NewBroker()
	invalidations, err := broker.Subscribe(ctx)
	require.NoError(t, err)

	validate, _ := core.NewValidator()
	svc := category.NewService(inmemdb.NewCategoryRepository(inmemdb.Open()), validate, broker, logsvc.NewNopLogger())

	off := false
	anxiety, err := svc.Create(ctx, category.NewCategory{Name: " Anxiety ", Order: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, anxiety.ID)
	assert.Equal(t, "Anxiety", anxiety.Name)
	assert.Equal(t, category.DefaultIcon, anxiety.Icon)
	assert.Equal(t, category.DefaultColor, anxiety.Color)
	assert.True(t, anxiety.IsActive)
	assert.Equal(t, []string{core.ViewCategories}, (<-invalidations).Views)

	grief, err := svc.Create(ctx, category.NewCategory{Name: "Grief", Order: 1, Color: "#fff", IsActive: &off})
	require.NoError(t, err)
	assert.False(t, grief.IsActive)

	t.Run("create errors", func(t *testing.T) {
		_, err := svc.Create(ctx, category.NewCategory{Name: "  "})
		assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))

		_, err = svc.Create(ctx, category.NewCategory{Name: "Sleep", Color: "blue"})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("list by order", func(t *testing.T) {
		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, grief.ID, list[0].ID)
		assert.Equal(t, anxiety.ID, list[1].ID)
	})

	t.Run("update", func(t *testing.T) {
		anxiety.Description = "Worry and panic"
		anxiety.Order = 0
		got, err := svc.Update(ctx, anxiety.ID, anxiety)
		require.NoError(t, err)
		assert.Equal(t, "Worry and panic", got.Description)

		list, _ := svc.List(ctx)
		assert.Equal(t, anxiety.ID, list[0].ID)

		_, err = svc.Update(ctx, "lol", anxiety)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, grief.ID))
		assert.Equal(t, core.KindNotFound, core.KindOf(svc.Delete(ctx, grief.ID)))
		assert.Equal(t, core.KindInvalidArgument, core.KindOf(svc.Delete(ctx, "")))
	})
}
