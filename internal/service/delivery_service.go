package service

import (
	"errors"
	"log"
	"net/url"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/pkg/clock"
	"lucent-shop-api/pkg/jwt"

	"github.com/google/uuid"
)

// URLSigner turns a storage path into a time-limited download URL.
type URLSigner interface {
	Sign(path string, itemID uuid.UUID) (signedURL string, expiresAt time.Time, err error)
}

type jwtURLSigner struct {
	baseURL string
	ttl     time.Duration
	clock   clock.Clock
}

// NewURLSigner signs URLs pointing at the asset download endpoint under baseURL.
func NewURLSigner(baseURL string, ttl time.Duration, clk clock.Clock) URLSigner {
	return &jwtURLSigner{baseURL: baseURL, ttl: ttl, clock: clk}
}

func (s *jwtURLSigner) Sign(path string, itemID uuid.UUID) (string, time.Time, error) {
	now := s.clock.Now()
	token, err := jwt.GenerateAssetToken(path, itemID.String(), now, s.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.baseURL + "/api/v1/assets/download?token=" + url.QueryEscape(token), now.Add(s.ttl), nil
}

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type DeliveryService interface {
	RequestDownload(orderID, itemID, userID uuid.UUID) (*DownloadLink, error)
}

type deliveryService struct {
	store  repository.Store
	signer URLSigner
	events EventLogger
	clock  clock.Clock
}

func NewDeliveryService(store repository.Store, signer URLSigner, events EventLogger, clk clock.Clock) DeliveryService {
	return &deliveryService{store: store, signer: signer, events: events, clock: clk}
}

// RequestDownload issues a signed URL for a fulfilled voice pack line owned
// by userID. Every refusal is ErrDownloadNotAvailable so callers cannot probe
// other users' orders.
func (s *deliveryService) RequestDownload(orderID, itemID, userID uuid.UUID) (*DownloadLink, error) {
	order, err := s.store.Orders().FindByID(orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDownloadNotAvailable
		}
		return nil, err
	}
	if order.UserID != userID || order.Status == model.StatusCancelled {
		return nil, ErrDownloadNotAvailable
	}
	item := order.FindItem(itemID)
	if item == nil || !item.IsDownloadable() {
		return nil, ErrDownloadNotAvailable
	}

	product, err := s.store.Products().FindByID(item.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDownloadNotAvailable
		}
		return nil, err
	}
	if product.DigitalFileURL == nil || *product.DigitalFileURL == "" {
		return nil, ErrDownloadNotAvailable
	}

	signed, expiresAt, err := s.signer.Sign(*product.DigitalFileURL, item.ID)
	if err != nil {
		return nil, err
	}

	// The counter is informational; a failed bump must not block the download.
	if err := s.store.Orders().RecordDownload(item.ID, s.clock.Now()); err != nil {
		log.Printf("Warning: failed to record download for item %s: %v", item.ID, err)
	}

	s.events.Log(model.EventDownloadIssued,
		"보이스팩 다운로드 링크 발급: "+item.ProductName,
		map[string]interface{}{
			"order_id":       order.ID,
			"order_number":   order.OrderNumber,
			"item_id":        item.ID,
			"download_count": item.DownloadCount + 1,
		},
		&userID, nil)

	return &DownloadLink{URL: signed, ExpiresAt: expiresAt}, nil
}
