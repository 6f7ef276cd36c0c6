package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

const (
	issuer        = "lucent-shop-api"
	assetAudience = "asset"
)

// Claims is the access token issued by the auth provider. The shop only
// verifies it; users and sessions live with the provider.
type Claims struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Privileges []string  `json:"privileges"`
	jwt.RegisteredClaims
}

// AssetClaims authorises a single download of a stored file path.
type AssetClaims struct {
	Path   string `json:"path"`
	ItemID string `json:"item_id"`
	jwt.RegisteredClaims
}

// GetSecretKey returns the JWT secret from environment or a default
func GetSecretKey() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-super-secret-key-change-in-production"
	}
	return []byte(secret)
}

// GetDownloadSecretKey returns the key used for signed asset URLs.
func GetDownloadSecretKey() []byte {
	secret := os.Getenv("DOWNLOAD_SECRET")
	if secret == "" {
		return append(GetSecretKey(), []byte(":download")...)
	}
	return []byte(secret)
}

// GenerateToken signs an access token. The API itself never logs users in;
// this exists for cmd/issue-token and tests.
func GenerateToken(userID uuid.UUID, email, name, role string, privileges []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:     userID,
		Email:      email,
		Name:       name,
		Role:       role,
		Privileges: privileges,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetSecretKey())
}

// ValidateToken parses and validates an access token
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(GetSecretKey()))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Provider tokens may only carry the subject.
	if claims.UserID == uuid.Nil {
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.UserID = id
	}
	return claims, nil
}

// GenerateAssetToken signs a short-lived token for downloading path.
func GenerateAssetToken(path, itemID string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := &AssetClaims{
		Path:   path,
		ItemID: itemID,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{assetAudience},
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetDownloadSecretKey())
}

// ValidateAssetToken returns the claims of a valid, unexpired asset token.
func ValidateAssetToken(tokenString string) (*AssetClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims := &AssetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(GetDownloadSecretKey()),
		jwt.WithAudience(assetAudience), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.Path == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func hmacKey(key []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	}
}
