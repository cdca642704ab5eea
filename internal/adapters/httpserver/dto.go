package httpserver

import (
	"time"

	"github.com/cratey/cratey/internal/domain"
	"github.com/cratey/cratey/internal/usecase"
)

type productJSON struct {
	ID                    string     `json:"id"`
	ArtistID              string     `json:"artist_id"`
	ArtistName            string     `json:"artist_name"`
	ArtistSlug            string     `json:"artist_slug,omitempty"`
	Title                 string     `json:"title"`
	Genre                 string     `json:"genre,omitempty"`
	CoverURL              string     `json:"cover_url,omitempty"`
	TrackNames            []string   `json:"track_names,omitempty"`
	PriceCents            int64      `json:"price_cents"`
	CurrentPriceCents     int64      `json:"current_price_cents"`
	ArchivePriceCents     *int64     `json:"archive_price_cents,omitempty"`
	DropWindowEnd         *time.Time `json:"drop_window_end,omitempty"`
	EditionType           string     `json:"edition_type"`
	EditionName           string     `json:"edition_name,omitempty"`
	EditionLimit          int        `json:"edition_limit,omitempty"`
	TotalSales            int        `json:"total_sales"`
	SoldOut               bool       `json:"sold_out"`
	BundleProductIDs      []string   `json:"bundle_product_ids,omitempty"`
	BundleDiscountPercent int        `json:"bundle_discount_percent,omitempty"`
	PreviewURLs           []string   `json:"preview_urls,omitempty"`
}

type productDetailJSON struct {
	productJSON
	Owned     bool     `json:"owned"`
	AudioURLs []string `json:"audio_urls"`
	Remaining *int     `json:"remaining,omitempty"`
}

func toProductJSON(p *domain.Product, now time.Time) productJSON {
	out := productJSON{
		ID:                    p.ID.String(),
		ArtistID:              p.ArtistID.String(),
		ArtistName:            p.ArtistName,
		ArtistSlug:            p.ArtistSlug,
		Title:                 p.Title,
		Genre:                 p.Genre,
		CoverURL:              p.CoverURL,
		TrackNames:            p.TrackNames,
		PriceCents:            p.PriceCents,
		CurrentPriceCents:     p.Pricing().PriceAt(now),
		EditionType:           string(p.EditionType),
		TotalSales:            p.TotalSales,
		SoldOut:               p.SoldOut(),
		BundleProductIDs:      p.BundleProductIDs,
		BundleDiscountPercent: p.BundleDiscountPercent,
		PreviewURLs:           p.PreviewURLs,
	}
	if d, ok := p.Pricing().(domain.TimedDrop); ok {
		archive, end := d.ArchivePrice, d.EndsAt
		out.ArchivePriceCents = &archive
		out.DropWindowEnd = &end
	}
	if p.IsLimited() {
		out.EditionName = p.EditionName
		out.EditionLimit = p.EditionLimit
	}
	return out
}

func toProductDetailJSON(v *usecase.ProductView, now time.Time) productDetailJSON {
	return productDetailJSON{
		productJSON: toProductJSON(v.Product, now),
		Owned:       v.Owned,
		AudioURLs:   v.AudioURLs,
		Remaining:   v.Remaining,
	}
}

type libraryItemJSON struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	OrderID          string     `json:"order_id"`
	BuyerEmail       string     `json:"buyer_email"`
	ProductTitle     string     `json:"product_title"`
	ArtistName       string     `json:"artist_name"`
	ArtistSlug       string     `json:"artist_slug,omitempty"`
	CoverURL         string     `json:"cover_url,omitempty"`
	AudioURLs        []string   `json:"audio_urls"`
	TrackNames       []string   `json:"track_names,omitempty"`
	AccessToken      string     `json:"access_token"`
	EditionName      string     `json:"edition_name,omitempty"`
	EditionNumber    *int       `json:"edition_number,omitempty"`
	DownloadCount    int        `json:"download_count"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty"`
	PurchasedAt      time.Time  `json:"purchased_at"`
}

func toLibraryItemJSON(it *domain.LibraryItem) libraryItemJSON {
	return libraryItemJSON{
		ID:               it.ID.String(),
		ProductID:        it.ProductID.String(),
		OrderID:          it.OrderID.String(),
		BuyerEmail:       it.BuyerEmail,
		ProductTitle:     it.ProductTitle,
		ArtistName:       it.ArtistName,
		ArtistSlug:       it.ArtistSlug,
		CoverURL:         it.CoverURL,
		AudioURLs:        it.AudioURLs,
		TrackNames:       it.TrackNames,
		AccessToken:      it.AccessToken,
		EditionName:      it.EditionName,
		EditionNumber:    it.EditionNumber,
		DownloadCount:    it.DownloadCount,
		LastDownloadedAt: it.LastDownloadedAt,
		PurchasedAt:      it.PurchasedAt,
	}
}

type orderJSON struct {
	ID                  string     `json:"id"`
	Status              string     `json:"status"`
	BuyerEmail          string     `json:"buyer_email"`
	ArtistID            string     `json:"artist_id"`
	ArtistName          string     `json:"artist_name"`
	ProductID           string     `json:"product_id"`
	ProductTitle        string     `json:"product_title"`
	AmountCents         int64      `json:"amount_cents"`
	PlatformFeeCents    int64      `json:"platform_fee_cents"`
	ArtistPayoutCents   int64      `json:"artist_payout_cents"`
	Currency            string     `json:"currency"`
	StripeSessionID     string     `json:"stripe_session_id"`
	StripePaymentIntent string     `json:"stripe_payment_intent,omitempty"`
	EditionName         string     `json:"edition_name,omitempty"`
	EditionNumber       *int       `json:"edition_number,omitempty"`
	DownloadCount       int        `json:"download_count"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func toOrderJSON(o *domain.Order) orderJSON {
	return orderJSON{
		ID:                  o.ID.String(),
		Status:              string(o.Status),
		BuyerEmail:          o.BuyerEmail,
		ArtistID:            o.ArtistID.String(),
		ArtistName:          o.ArtistName,
		ProductID:           o.ProductID.String(),
		ProductTitle:        o.ProductTitle,
		AmountCents:         o.AmountCents,
		PlatformFeeCents:    o.PlatformFeeCents,
		ArtistPayoutCents:   o.ArtistPayoutCents,
		Currency:            o.Currency,
		StripeSessionID:     o.StripeSessionID,
		StripePaymentIntent: o.StripePaymentIntent,
		EditionName:         o.EditionName,
		EditionNumber:       o.EditionNumber,
		DownloadCount:       o.DownloadCount,
		RefundedAt:          o.RefundedAt,
		CreatedAt:           o.CreatedAt,
	}
}

type artistJSON struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	ThankYouNote string    `json:"thank_you_note,omitempty"`
	TotalSales   int       `json:"total_sales"`
	ProductCount *int64    `json:"product_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toArtistJSON(a *domain.Artist) artistJSON {
	return artistJSON{
		ID:           a.ID.String(),
		Slug:         a.Slug,
		Name:         a.Name,
		ThankYouNote: a.ThankYouNote,
		TotalSales:   a.TotalSales,
		CreatedAt:    a.CreatedAt,
	}
}

type artistStatsJSON struct {
	ArtistID          string             `json:"artist_id"`
	Name              string             `json:"name"`
	TotalProducts     int                `json:"total_products"`
	TotalSales        int                `json:"total_sales"`
	GrossRevenueCents int64              `json:"gross_revenue_cents"`
	PayoutCents       int64              `json:"payout_cents"`
	Products          []productStatsJSON `json:"products"`
}

type productStatsJSON struct {
	ProductID    string `json:"product_id"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
	TotalSales   int    `json:"total_sales"`
	RevenueCents int64  `json:"revenue_cents"`
}

func toArtistStatsJSON(st *usecase.ArtistStats) artistStatsJSON {
	out := artistStatsJSON{
		ArtistID:          st.ArtistID.String(),
		Name:              st.Name,
		TotalProducts:     st.TotalProducts,
		TotalSales:        st.TotalSales,
		GrossRevenueCents: st.GrossRevenueCents,
		PayoutCents:       st.PayoutCents,
		Products:          make([]productStatsJSON, 0, len(st.Products)),
	}
	for _, p := range st.Products {
		out.Products = append(out.Products, productStatsJSON{
			ProductID:    p.ProductID.String(),
			Title:        p.Title,
			Active:       p.Active,
			TotalSales:   p.TotalSales,
			RevenueCents: p.RevenueCents,
		})
	}
	return out
}

// Backup records carry the private columns the public shapes leave out.

type backupArtistJSON struct {
	artistJSON
	Email             string `json:"email,omitempty"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
}

type backupProductJSON struct {
	productJSON
	AudioURLs         []string  `json:"audio_urls"`
	TotalRevenueCents int64     `json:"total_revenue_cents"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

type accessTokenJSON struct {
	ID         string    `json:"id"`
	BuyerEmail string    `json:"buyer_email"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type backupJSON struct {
	Timestamp    time.Time      `json:"timestamp"`
	Entities     map[string]any `json:"entities"`
	Counts       map[string]int `json:"counts"`
	TotalRecords int            `json:"total_records"`
}

func toBackupJSON(b *domain.Backup) backupJSON {
	artists := make([]backupArtistJSON, 0, len(b.Artists))
	for i := range b.Artists {
		a := &b.Artists[i]
		artists = append(artists, backupArtistJSON{artistJSON: toArtistJSON(a), Email: a.Email, TotalRevenueCents: a.TotalRevenueCents})
	}
	products := make([]backupProductJSON, 0, len(b.Products))
	for i := range b.Products {
		p := &b.Products[i]
		products = append(products, backupProductJSON{
			productJSON:       toProductJSON(p, b.CreatedAt),
			AudioURLs:         p.AudioURLs,
			TotalRevenueCents: p.TotalRevenueCents,
			Active:            p.Active,
			CreatedAt:         p.CreatedAt,
		})
	}
	orders := make([]orderJSON, 0, len(b.Orders))
	for i := range b.Orders {
		orders = append(orders, toOrderJSON(&b.Orders[i]))
	}
	items := make([]libraryItemJSON, 0, len(b.LibraryItems))
	for i := range b.LibraryItems {
		items = append(items, toLibraryItemJSON(&b.LibraryItems[i]))
	}
	tokens := make([]accessTokenJSON, 0, len(b.AccessTokens))
	for _, t := range b.AccessTokens {
		tokens = append(tokens, accessTokenJSON{
			ID:         t.ID.String(),
			BuyerEmail: t.BuyerEmail,
			Token:      t.Token,
			ExpiresAt:  t.ExpiresAt,
			CreatedAt:  t.CreatedAt,
		})
	}
	return backupJSON{
		Timestamp: b.CreatedAt,
		Entities: map[string]any{
			"Artist":             artists,
			"Product":            products,
			"Order":              orders,
			"LibraryItem":        items,
			"LibraryAccessToken": tokens,
		},
		Counts: map[string]int{
			"Artist":             len(artists),
			"Product":            len(products),
			"Order":              len(orders),
			"LibraryItem":        len(items),
			"LibraryAccessToken": len(tokens),
		},
		TotalRecords: b.Records(),
	}
}
