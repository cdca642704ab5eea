// Package memory is a process-local implementation of the storage ports.
// It has no durability and no multi-instance consistency; it backs tests and
// single-instance demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cratey/cratey/internal/domain"
)

type ownerKey struct {
	email     string
	productID uuid.UUID
}

type Store struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
	artists  map[uuid.UUID]domain.Artist
	orders   map[uuid.UUID]domain.Order
	items    map[uuid.UUID]domain.LibraryItem
	owners   map[ownerKey]uuid.UUID
	tokens   map[string]domain.LibraryAccessToken
}

func New() *Store {
	return &Store{
		products: map[uuid.UUID]domain.Product{},
		artists:  map[uuid.UUID]domain.Artist{},
		orders:   map[uuid.UUID]domain.Order{},
		items:    map[uuid.UUID]domain.LibraryItem{},
		owners:   map[ownerKey]uuid.UUID{},
		tokens:   map[string]domain.LibraryAccessToken{},
	}
}

func (s *Store) Products() *ProductRepo         { return &ProductRepo{s: s} }
func (s *Store) Artists() *ArtistRepo           { return &ArtistRepo{s: s} }
func (s *Store) Orders() *OrderRepo             { return &OrderRepo{s: s} }
func (s *Store) Library() *LibraryRepo          { return &LibraryRepo{s: s} }
func (s *Store) AccessTokens() *AccessTokenRepo { return &AccessTokenRepo{s: s} }

func alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Commit applies Order, LibraryItem and Product counters in that order under
// one lock.
func (s *Store) Commit(ctx context.Context, f *domain.Fulfillment) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[f.Product.ID]
	if !ok {
		return domain.ErrNotFound
	}
	key := ownerKey{email: normEmail(f.Item.BuyerEmail), productID: p.ID}
	if _, owned := s.owners[key]; owned {
		return domain.ErrAlreadyOwned
	}
	if p.SoldOut() {
		return domain.ErrSoldOut
	}
	if p.IsLimited() {
		n := p.TotalSales + 1
		f.Order.EditionNumber = &n
		f.Item.EditionNumber = &n
	}

	now := time.Now()
	f.Order.CreatedAt, f.Order.UpdatedAt = now, now
	s.orders[f.Order.ID] = *f.Order

	f.Item.CreatedAt = now
	s.items[f.Item.ID] = cloneItem(*f.Item)
	s.owners[key] = f.Item.ID

	p.TotalSales++
	p.TotalRevenueCents += f.Order.AmountCents
	p.UpdatedAt = now
	s.products[p.ID] = p
	f.Product.TotalSales = p.TotalSales
	f.Product.TotalRevenueCents = p.TotalRevenueCents

	if a, ok := s.artists[p.ArtistID]; ok {
		a.TotalSales++
		a.TotalRevenueCents += f.Order.ArtistPayoutCents
		a.UpdatedAt = now
		s.artists[a.ID] = a
	}
	return nil
}

// Snapshot copies every entity, oldest first.
func (s *Store) Snapshot(ctx context.Context) (*domain.Backup, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := &domain.Backup{CreatedAt: time.Now().UTC()}
	for _, a := range s.artists {
		b.Artists = append(b.Artists, a)
	}
	for _, p := range s.products {
		b.Products = append(b.Products, p)
	}
	for _, o := range s.orders {
		b.Orders = append(b.Orders, o)
	}
	for _, it := range s.items {
		b.LibraryItems = append(b.LibraryItems, cloneItem(it))
	}
	for _, t := range s.tokens {
		b.AccessTokens = append(b.AccessTokens, t)
	}
	sort.Slice(b.Artists, func(i, j int) bool { return b.Artists[i].CreatedAt.Before(b.Artists[j].CreatedAt) })
	sort.Slice(b.Products, func(i, j int) bool { return b.Products[i].CreatedAt.Before(b.Products[j].CreatedAt) })
	sort.Slice(b.Orders, func(i, j int) bool { return b.Orders[i].CreatedAt.Before(b.Orders[j].CreatedAt) })
	sort.Slice(b.LibraryItems, func(i, j int) bool { return b.LibraryItems[i].CreatedAt.Before(b.LibraryItems[j].CreatedAt) })
	sort.Slice(b.AccessTokens, func(i, j int) bool { return b.AccessTokens[i].CreatedAt.Before(b.AccessTokens[j].CreatedAt) })
	return b, nil
}

func cloneItem(it domain.LibraryItem) domain.LibraryItem {
	it.AudioURLs = append([]string(nil), it.AudioURLs...)
	it.TrackNames = append([]string(nil), it.TrackNames...)
	return it
}

type ProductRepo struct{ s *Store }

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if err := alive(ctx); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	var list []domain.Product
	q := strings.ToLower(strings.TrimSpace(f.Query))
	for _, p := range r.s.products {
		if !p.Active && !f.IncludeInactive {
			continue
		}
		if f.ArtistID != nil && p.ArtistID != *f.ArtistID {
			continue
		}
		if f.Genre != "" && !strings.EqualFold(p.Genre, f.Genre) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.ArtistName), q) {
			continue
		}
		list = append(list, p)
	}
	r.s.mu.RUnlock()

	switch f.Sort {
	case "price_asc":
		sort.Slice(list, func(i, j int) bool { return list[i].PriceCents < list[j].PriceCents })
	case "price_desc":
		sort.Slice(list, func(i, j int) bool { return list[i].PriceCents > list[j].PriceCents })
	case "newest":
		sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	default:
		sort.Slice(list, func(i, j int) bool { return list[i].Title < list[j].Title })
	}
	total := int64(len(list))
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	start := (f.Page - 1) * f.PageSize
	if start >= len(list) {
		return nil, total, nil
	}
	end := start + f.PageSize
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], total, nil
}

type ArtistRepo struct{ s *Store }

func (r *ArtistRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.artists[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *ArtistRepo) FindBySlug(ctx context.Context, slug string) (*domain.Artist, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.artists {
		if a.Slug == slug {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *ArtistRepo) List(ctx context.Context, f domain.ArtistFilter) ([]domain.Artist, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	r.s.mu.RLock()
	var list []domain.Artist
	for _, a := range r.s.artists {
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) {
			continue
		}
		list = append(list, a)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalSales != list[j].TotalSales {
			return list[i].TotalSales > list[j].TotalSales
		}
		return list[i].Name < list[j].Name
	})
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (r *ArtistRepo) Save(ctx context.Context, a *domain.Artist) error {
	if err := alive(ctx); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.artists[a.ID] = *a
	return nil
}

type OrderRepo struct{ s *Store }

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var list []domain.Order
	email := normEmail(f.BuyerEmail)
	for _, o := range r.s.orders {
		if email != "" && o.BuyerEmail != email {
			continue
		}
		if f.ArtistID != nil && o.ArtistID != *f.ArtistID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		list = append(list, o)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (r *OrderRepo) MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != domain.OrderStatusPaid {
		return domain.ErrNotFound
	}
	o.Status = domain.OrderStatusRefunded
	o.RefundedAt = &at
	o.UpdatedAt = at
	r.s.orders[id] = o
	return nil
}

type LibraryRepo struct{ s *Store }

func (r *LibraryRepo) Exists(ctx context.Context, email string, productID uuid.UUID) (bool, error) {
	if err := alive(ctx); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.owners[ownerKey{email: normEmail(email), productID: productID}]
	return ok, nil
}

func (r *LibraryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.LibraryItem, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it = cloneItem(it)
	return &it, nil
}

func (r *LibraryRepo) FindByOwner(ctx context.Context, email string, productID uuid.UUID) (*domain.LibraryItem, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.owners[ownerKey{email: normEmail(email), productID: productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it := cloneItem(r.s.items[id])
	return &it, nil
}

func (r *LibraryRepo) ListByEmail(ctx context.Context, email string) ([]domain.LibraryItem, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	e := normEmail(email)
	r.s.mu.RLock()
	var list []domain.LibraryItem
	for _, it := range r.s.items {
		if it.BuyerEmail == e {
			list = append(list, cloneItem(it))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].PurchasedAt.After(list[j].PurchasedAt) })
	return list, nil
}

func (r *LibraryRepo) ListAll(ctx context.Context) ([]domain.LibraryItem, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	list := make([]domain.LibraryItem, 0, len(r.s.items))
	for _, it := range r.s.items {
		list = append(list, cloneItem(it))
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].BuyerEmail != list[j].BuyerEmail {
			return list[i].BuyerEmail < list[j].BuyerEmail
		}
		return list[i].PurchasedAt.Before(list[j].PurchasedAt)
	})
	return list, nil
}

func (r *LibraryRepo) RecordDownload(ctx context.Context, id uuid.UUID, at time.Time) (int, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	it.DownloadCount++
	it.LastDownloadedAt = &at
	r.s.items[id] = it
	if o, ok := r.s.orders[it.OrderID]; ok {
		o.DownloadCount++
		r.s.orders[o.ID] = o
	}
	return it.DownloadCount, nil
}

type AccessTokenRepo struct{ s *Store }

func (r *AccessTokenRepo) Create(ctx context.Context, t *domain.LibraryAccessToken) error {
	if err := alive(ctx); err != nil {
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.BuyerEmail = normEmail(t.BuyerEmail)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[t.Token] = *t
	return nil
}

func (r *AccessTokenRepo) FindValid(ctx context.Context, email, token string, now time.Time) (*domain.LibraryAccessToken, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[token]
	if !ok || t.BuyerEmail != normEmail(email) || !t.Valid(now) {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}
