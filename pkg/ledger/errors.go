package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

type Kind string

const (
	KindUnconfigured      Kind = "unconfigured"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindNonceConflict     Kind = "nonce_conflict"
	KindReverted          Kind = "reverted"
	KindUnreachable       Kind = "unreachable"
	KindNotFound          Kind = "not_found"
	KindUnknown           Kind = "unknown"
)

type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ledger %s: %s", e.Op, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ledger error kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// classify turns an error coming back from the node or the bindings into a
// tagged ledger error. JSON-RPC only carries text, so this is the single
// place where messages are inspected.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindUnreachable, Op: op, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return &Error{Kind: KindInsufficientFunds, Op: op, Err: err}
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "replacement transaction underpriced"),
		strings.Contains(msg, "already known"):
		return &Error{Kind: KindNonceConflict, Op: op, Err: err}
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return &Error{Kind: KindReverted, Op: op, Reason: revertReason(err), Err: err}
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "eof"),
		strings.Contains(msg, "timeout"):
		return &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}

func revertReason(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}
	data, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}
	reason, unpackErr := abi.UnpackRevert(common.FromHex(data))
	if unpackErr != nil {
		return ""
	}
	return reason
}
