package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cratey/cratey/internal/domain"
)

const (
	AccessTokenTTL = 24 * time.Hour
	SignedURLTTL   = time.Hour
)

type SignedURL struct {
	URL       string
	ExpiresIn int
}

type LibraryUC struct {
	Library  domain.LibraryRepo
	Tokens   domain.AccessTokenRepo
	Limiter  domain.RateLimiter
	Notifier *Notifier
	Secret   string
	BaseURL  string
	Now      func() time.Time
}

func (uc *LibraryUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Owns reports whether the buyer holds the product. It is always a fresh read.
func (uc *LibraryUC) Owns(ctx context.Context, email string, productID uuid.UUID) (bool, error) {
	if strings.TrimSpace(email) == "" || productID == uuid.Nil {
		return false, nil
	}
	return uc.Library.Exists(ctx, email, productID)
}

// List returns the buyer's items once the emailed access token checks out.
func (uc *LibraryUC) List(ctx context.Context, email, token string) ([]domain.LibraryItem, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: email and token required", domain.ErrInvalidInput)
	}
	if _, err := uc.Tokens.FindValid(ctx, email, token, uc.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	return uc.Library.ListByEmail(ctx, email)
}

// Access returns one item if token matches its access token.
func (uc *LibraryUC) Access(ctx context.Context, id uuid.UUID, token string) (*domain.LibraryItem, error) {
	it, err := uc.Library.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !secureCompare(it.AccessToken, token) {
		return nil, domain.ErrForbidden
	}
	return it, nil
}

func (uc *LibraryUC) RecordDownload(ctx context.Context, id uuid.UUID, token string) (int, error) {
	if _, err := uc.Access(ctx, id, token); err != nil {
		return 0, err
	}
	return uc.Library.RecordDownload(ctx, id, uc.now())
}

// AudioURL issues a short-lived signed URL for one track of an owned product.
func (uc *LibraryUC) AudioURL(ctx context.Context, email string, productID uuid.UUID, track int) (*SignedURL, error) {
	if uc.Secret == "" {
		return nil, domain.ErrNotConfigured
	}
	it, err := uc.Library.FindByOwner(ctx, email, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if track < 0 || track >= len(it.AudioURLs) {
		return nil, fmt.Errorf("%w: track_index", domain.ErrInvalidInput)
	}
	exp := uc.now().Add(SignedURLTTL).Unix()
	src := it.AudioURLs[track]
	q := url.Values{}
	q.Set("src", src)
	q.Set("expires", strconv.FormatInt(exp, 10))
	q.Set("sig", uc.sign(src, exp))
	return &SignedURL{
		URL:       strings.TrimRight(uc.BaseURL, "/") + "/media?" + q.Encode(),
		ExpiresIn: int(SignedURLTTL.Seconds()),
	}, nil
}

// ResolveMedia checks a signed media link and returns the underlying source.
func (uc *LibraryUC) ResolveMedia(src, expires, sig string) (string, error) {
	if uc.Secret == "" {
		return "", domain.ErrNotConfigured
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || src == "" {
		return "", fmt.Errorf("%w: media link", domain.ErrInvalidInput)
	}
	if uc.now().Unix() > exp {
		return "", domain.ErrForbidden
	}
	if !secureCompare(uc.sign(src, exp), sig) {
		return "", domain.ErrForbidden
	}
	return src, nil
}

func (uc *LibraryUC) sign(src string, exp int64) string {
	mac := hmac.New(sha256.New, []byte(uc.Secret))
	mac.Write([]byte(src + "|" + strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequestAccessLink issues a 24h library token and emails it. Requests are
// limited per address.
func (uc *LibraryUC) RequestAccessLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email", domain.ErrInvalidInput)
	}
	if uc.Limiter != nil {
		if err := uc.Limiter.Allow(ctx, "access-link:"+email); err != nil {
			return err
		}
	}
	items, err := uc.Library.ListByEmail(ctx, email)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no purchases for %s: %w", email, domain.ErrNotFound)
	}

	tok, err := randomToken()
	if err != nil {
		return err
	}
	if err := uc.Tokens.Create(ctx, &domain.LibraryAccessToken{
		BuyerEmail: email,
		Token:      tok,
		ExpiresAt:  uc.now().Add(AccessTokenTTL),
	}); err != nil {
		return err
	}
	if uc.Notifier == nil {
		return domain.ErrNotConfigured
	}
	if err := uc.Notifier.LibraryAccess(ctx, email, tok, len(items)); err != nil {
		log.Error().Err(err).Str("buyer", email).Msg("library access email failed")
		return fmt.Errorf("send access link: %w", err)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func secureCompare(a, b string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
