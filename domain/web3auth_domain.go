package domain

import (
	"errors"
)

var (
	MessageSuccessRequestNonce = "nonce generated successfully"
	MessageSuccessVerify       = "wallet verified successfully"
	MessageSuccessMe           = "wallet retrieved successfully"

	MessageFailedRequestNonce = "failed to generate nonce"
	MessageFailedVerify       = "failed to verify wallet signature"

	ErrInvalidWalletAddress = errors.New("invalid wallet address")
	ErrNonceNotFound        = errors.New("nonce not found or expired")
	ErrMessageMismatch      = errors.New("message does not match issued challenge")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrSignatureMismatch    = errors.New("signature does not match wallet address")
)

type (
	RequestNonceRequest struct {
		WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
	}

	RequestNonceResponse struct {
		Nonce     string `json:"nonce"`
		Message   string `json:"message"`
		ExpiresAt int64  `json:"expiresAt"`
	}

	VerifySignatureRequest struct {
		WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
		Signature     string `json:"signature" validate:"required"`
		Message       string `json:"message" validate:"required"`
	}

	VerifySignatureResponse struct {
		Token         string `json:"token"`
		WalletAddress string `json:"walletAddress"`
		ExpiresAt     int64  `json:"expiresAt"`
	}

	LoginMeta struct {
		IPAddress string
		UserAgent string
	}
)
