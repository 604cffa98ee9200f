package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"GreenOrigin-Backend/domain"

	"github.com/golang-jwt/jwt/v4"
)

const TokenTypeWeb3 = "web3"

var ErrMissingSecret = errors.New("jwt secret is not configured")

type (
	JWTService interface {
		GenerateWalletToken(walletAddress string) (string, time.Time, error)
		ValidateToken(token string) (*jwt.Token, error)
		GetWalletByToken(token string) (string, error)
	}

	walletClaim struct {
		WalletAddress string `json:"wallet_address"`
		Type          string `json:"type"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		ttl       time.Duration
		now       func() time.Time
	}
)

func NewJWTService(secretKey string, ttl time.Duration) JWTService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &jwtService{
		secretKey: secretKey,
		issuer:    "GreenOrigin",
		ttl:       ttl,
		now:       time.Now,
	}
}

func (j *jwtService) GenerateWalletToken(walletAddress string) (string, time.Time, error) {
	if j.secretKey == "" {
		return "", time.Time{}, ErrMissingSecret
	}
	now := j.now()
	expiresAt := now.Add(j.ttl)
	claims := walletClaim{
		strings.ToLower(walletAddress),
		TokenTypeWeb3,
		jwt.RegisteredClaims{
			Subject:   strings.ToLower(walletAddress),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	if j.secretKey == "" {
		return nil, ErrMissingSecret
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateToken(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &walletClaim{}, j.parseToken)
}

func (j *jwtService) GetWalletByToken(token string) (string, error) {
	t_Token, err := j.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return "", domain.ErrTokenInvalid
	}

	claims, ok := t_Token.Claims.(*walletClaim)
	if !ok || claims.WalletAddress == "" || claims.Type != TokenTypeWeb3 {
		return "", domain.ErrTokenInvalid
	}
	return claims.WalletAddress, nil
}
