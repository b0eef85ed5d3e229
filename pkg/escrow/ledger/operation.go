package ledger

import (
	"context"

	"github.com/pkg/errors"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
)

// OperationType is a closed enum of ledger mutations. Dispatch is an
// exhaustive switch over typed payloads, so an unknown operation fails loudly
// instead of silently falling through.
type OperationType uint8

const (
	OperationTypeUnknown OperationType = iota
	OperationTypeInitializePlatform
	OperationTypeDeposit
	OperationTypeWithdraw
	OperationTypePlaceBet
	OperationTypeSettleMatch
	OperationTypeRefundMatch
)

func (t OperationType) String() string {
	switch t {
	case OperationTypeInitializePlatform:
		return "initialize_platform"
	case OperationTypeDeposit:
		return "deposit"
	case OperationTypeWithdraw:
		return "withdraw"
	case OperationTypePlaceBet:
		return "place_bet"
	case OperationTypeSettleMatch:
		return "settle_match"
	case OperationTypeRefundMatch:
		return "refund_match"
	}

	return "unknown"
}

var ErrInvalidOperation = errors.New("operation payload doesn't match its type")

type InitializePlatformPayload struct {
	Admin          *common.Account
	MinimumDeposit uint64
	MaximumDeposit uint64
	PlatformFeeBps uint16
}

type DepositPayload struct {
	Owner             *common.Account
	Amount            uint64
	TransferReference string
}

type WithdrawPayload struct {
	Owner       *common.Account
	Amount      uint64
	Destination *common.Key
}

type PlaceBetPayload struct {
	Bettor          *common.Account
	MatchID         string
	Amount          uint64
	SelectedOutcome uint8
}

type SettleMatchPayload struct {
	Authority         *common.Account
	MatchID           string
	WinningOutcome    uint8
	PayoutNumerator   uint64
	PayoutDenominator uint64
}

type RefundMatchPayload struct {
	Authority *common.Account
	MatchID   string
}

// Operation is a tagged variant. Exactly the payload named by Type must be
// set.
type Operation struct {
	Type OperationType

	InitializePlatform *InitializePlatformPayload
	Deposit            *DepositPayload
	Withdraw           *WithdrawPayload
	PlaceBet           *PlaceBetPayload
	SettleMatch        *SettleMatchPayload
	RefundMatch        *RefundMatchPayload
}

// Apply executes a single operation against the ledger.
func (s *Service) Apply(ctx context.Context, op *Operation) error {
	switch op.Type {
	case OperationTypeInitializePlatform:
		if op.InitializePlatform == nil {
			return ErrInvalidOperation
		}
		return s.InitializePlatform(ctx, op.InitializePlatform.Admin, op.InitializePlatform.MinimumDeposit, op.InitializePlatform.MaximumDeposit, op.InitializePlatform.PlatformFeeBps)
	case OperationTypeDeposit:
		if op.Deposit == nil {
			return ErrInvalidOperation
		}
		return s.Deposit(ctx, op.Deposit.Owner, op.Deposit.Amount, op.Deposit.TransferReference)
	case OperationTypeWithdraw:
		if op.Withdraw == nil {
			return ErrInvalidOperation
		}
		return s.Withdraw(ctx, op.Withdraw.Owner, op.Withdraw.Amount, op.Withdraw.Destination)
	case OperationTypePlaceBet:
		if op.PlaceBet == nil {
			return ErrInvalidOperation
		}
		return s.PlaceBet(ctx, op.PlaceBet.Bettor, op.PlaceBet.MatchID, op.PlaceBet.Amount, op.PlaceBet.SelectedOutcome)
	case OperationTypeSettleMatch:
		if op.SettleMatch == nil {
			return ErrInvalidOperation
		}
		return s.SettleMatch(ctx, op.SettleMatch.Authority, op.SettleMatch.MatchID, op.SettleMatch.WinningOutcome, op.SettleMatch.PayoutNumerator, op.SettleMatch.PayoutDenominator)
	case OperationTypeRefundMatch:
		if op.RefundMatch == nil {
			return ErrInvalidOperation
		}
		return s.RefundMatch(ctx, op.RefundMatch.Authority, op.RefundMatch.MatchID)
	}

	return ErrInvalidOperation
}
