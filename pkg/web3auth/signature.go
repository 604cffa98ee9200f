package web3auth

import (
	"fmt"
	"strings"

	"GreenOrigin-Backend/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// personalMessageHash is the EIP-191 digest wallets sign for personal_sign.
func personalMessageHash(message string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return h.Sum(nil)
}

// RecoverAddress returns the address that produced signature over message.
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, domain.ErrInvalidSignature
	}

	// wallets emit v as 27/28; go-ethereum expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, domain.ErrInvalidSignature
	}

	pub, err := crypto.SigToPub(personalMessageHash(message), sig)
	if err != nil {
		return common.Address{}, domain.ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func VerifySignature(address, message, signature string) error {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if !strings.EqualFold(recovered.Hex(), address) {
		return domain.ErrSignatureMismatch
	}
	return nil
}
