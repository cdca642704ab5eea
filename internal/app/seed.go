package app

import (
	"context"
	"time"

	"github.com/cratey/cratey/internal/adapters/repo/postgres"
	"github.com/cratey/cratey/internal/domain"
)

func seedDemo(ctx context.Context, a *App) error {
	artists := postgres.NewArtistRepo(a.DB)
	artist := &domain.Artist{
		Slug:         "night-drive",
		Name:         "Night Drive",
		Email:        "band@nightdrive.example",
		ThankYouNote: "Thank you for supporting independent music. This one was recorded live to tape.",
	}
	if err := artists.Save(ctx, artist); err != nil {
		return err
	}

	archive := int64(1499)
	dropEnd := time.Now().Add(14 * 24 * time.Hour)
	prods := []domain.Product{
		{
			Title: "Neon Tapes", Genre: "synthwave", PriceCents: 999, EditionType: domain.EditionUnlimited,
			TrackNames:            []string{"Intro", "Neon Tapes", "Overpass"},
			AudioURLs:             []string{"https://cdn.cratey.example/neon/1.mp3", "https://cdn.cratey.example/neon/2.mp3", "https://cdn.cratey.example/neon/3.mp3"},
			PreviewURLs:           []string{"https://cdn.cratey.example/neon/preview.mp3"},
			BundleDiscountPercent: 15,
		},
		{
			Title: "Lathe Cut Sessions", Genre: "synthwave", PriceCents: 2500, EditionType: domain.EditionLimited,
			EditionName: "Lathe Cut", EditionLimit: 50,
			TrackNames:  []string{"Side A", "Side B"},
			AudioURLs:   []string{"https://cdn.cratey.example/lathe/a.mp3", "https://cdn.cratey.example/lathe/b.mp3"},
			PreviewURLs: []string{"https://cdn.cratey.example/lathe/preview.mp3"},
		},
		{
			Title: "Midnight Drop", Genre: "electronic", PriceCents: 799, EditionType: domain.EditionUnlimited,
			DropWindowEnabled: true, DropWindowEnd: &dropEnd, ArchivePriceCents: &archive,
			TrackNames:            []string{"Midnight"},
			AudioURLs:             []string{"https://cdn.cratey.example/midnight/1.mp3"},
			PreviewURLs:           []string{"https://cdn.cratey.example/midnight/preview.mp3"},
			BundleDiscountPercent: 15,
		},
	}
	for i := range prods {
		p := &prods[i]
		p.ArtistID = artist.ID
		p.ArtistName = artist.Name
		p.Active = true
		if err := a.ProductUC.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
