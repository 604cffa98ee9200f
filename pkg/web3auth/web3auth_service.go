package web3auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/pkg/jwt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const challengeFormat = "GreenOrigin login\n\nWallet: %s\nNonce: %s\nIssued At: %s"

type (
	Web3AuthService interface {
		RequestNonce(ctx context.Context, req domain.RequestNonceRequest) (domain.RequestNonceResponse, error)
		Verify(ctx context.Context, req domain.VerifySignatureRequest, meta domain.LoginMeta) (domain.VerifySignatureResponse, error)
		GetLoginHistory(ctx context.Context, walletAddress string) ([]entities.LoginHistory, error)
	}

	web3AuthService struct {
		repo       Web3AuthRepository
		nonces     *NonceStore
		jwtService jwt.JWTService
		now        func() time.Time
	}
)

func NewWeb3AuthService(repo Web3AuthRepository, nonces *NonceStore, jwtService jwt.JWTService) Web3AuthService {
	return &web3AuthService{
		repo:       repo,
		nonces:     nonces,
		jwtService: jwtService,
		now:        time.Now,
	}
}

func generateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *web3AuthService) RequestNonce(ctx context.Context, req domain.RequestNonceRequest) (domain.RequestNonceResponse, error) {
	if !common.IsHexAddress(req.WalletAddress) {
		return domain.RequestNonceResponse{}, domain.ErrInvalidWalletAddress
	}

	nonce, err := generateNonce()
	if err != nil {
		return domain.RequestNonceResponse{}, err
	}

	now := s.now()
	entry := Nonce{
		Nonce:     nonce,
		Message:   fmt.Sprintf(challengeFormat, req.WalletAddress, nonce, now.UTC().Format(time.RFC3339)),
		Timestamp: now,
		ExpiresAt: now.Add(NonceTTL),
	}
	s.nonces.Put(req.WalletAddress, entry)

	return domain.RequestNonceResponse{
		Nonce:     entry.Nonce,
		Message:   entry.Message,
		ExpiresAt: entry.ExpiresAt.UnixMilli(),
	}, nil
}

func (s *web3AuthService) Verify(ctx context.Context, req domain.VerifySignatureRequest, meta domain.LoginMeta) (domain.VerifySignatureResponse, error) {
	if !common.IsHexAddress(req.WalletAddress) {
		return domain.VerifySignatureResponse{}, domain.ErrInvalidWalletAddress
	}

	entry, ok := s.nonces.Get(req.WalletAddress)
	if !ok {
		return domain.VerifySignatureResponse{}, domain.ErrNonceNotFound
	}
	if entry.Message != req.Message {
		return domain.VerifySignatureResponse{}, domain.ErrMessageMismatch
	}

	if err := VerifySignature(req.WalletAddress, req.Message, req.Signature); err != nil {
		s.recordLogin(ctx, req.WalletAddress, meta, "failed", err.Error())
		return domain.VerifySignatureResponse{}, err
	}

	if !s.nonces.Consume(req.WalletAddress, entry.Nonce) {
		return domain.VerifySignatureResponse{}, domain.ErrNonceNotFound
	}

	token, expiresAt, err := s.jwtService.GenerateWalletToken(req.WalletAddress)
	if err != nil {
		return domain.VerifySignatureResponse{}, err
	}

	s.recordLogin(ctx, req.WalletAddress, meta, "success", "")

	return domain.VerifySignatureResponse{
		Token:         token,
		WalletAddress: strings.ToLower(req.WalletAddress),
		ExpiresAt:     expiresAt.UnixMilli(),
	}, nil
}

// recordLogin never fails the login it describes.
func (s *web3AuthService) recordLogin(ctx context.Context, wallet string, meta domain.LoginMeta, status, message string) {
	if s.repo == nil {
		return
	}
	history := &entities.LoginHistory{
		ID:            uuid.New(),
		WalletAddress: strings.ToLower(wallet),
		LoginTime:     s.now(),
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Status:        status,
		Message:       message,
	}
	if err := s.repo.CreateLoginHistory(ctx, history); err != nil {
		log.Warnf("failed to record login history for %s: %v", wallet, err)
	}
}

func (s *web3AuthService) GetLoginHistory(ctx context.Context, walletAddress string) ([]entities.LoginHistory, error) {
	return s.repo.GetLoginHistory(ctx, strings.ToLower(walletAddress), 20)
}
