package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratey/cratey/internal/domain"
)

func TestProductGetSwapsAudioForOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := &ProductUC{Products: f.store.Products(), Library: f.store.Library()}
	p := f.product(t, "neon", func(p *domain.Product) {
		p.EditionType = domain.EditionLimited
		p.EditionLimit = 10
	})

	v, err := uc.Get(ctx, p.ID, "fan@x.com")
	require.NoError(t, err)
	assert.False(t, v.Owned)
	assert.Equal(t, p.PreviewURLs, v.AudioURLs)
	require.NotNil(t, v.Remaining)
	assert.Equal(t, 10, *v.Remaining)

	buy(t, f, p, "fan@x.com")

	v, err = uc.Get(ctx, p.ID, "fan@x.com")
	require.NoError(t, err)
	assert.True(t, v.Owned)
	assert.Equal(t, p.AudioURLs, v.AudioURLs)
	assert.Equal(t, 9, *v.Remaining)
}

func TestProductListHidesInactive(t *testing.T) {
	f := newFixture(t)
	uc := &ProductUC{Products: f.store.Products()}
	f.product(t, "live", nil)
	f.product(t, "hidden", func(p *domain.Product) { p.Active = false })

	list, total, err := uc.List(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "live", list[0].Title)
}
