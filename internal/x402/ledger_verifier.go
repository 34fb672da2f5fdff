package x402

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/ledger"
	"github.com/agentfi/agentfi/pkg/models"
)

// mirrorReader is the read-only ledger query the verifier depends on.
type mirrorReader interface {
	Transaction(ctx context.Context, id string) (*ledger.Transaction, error)
}

// LedgerVerifier confirms a ledger-native token payment by reading the
// transaction back from the mirror node. Verification is also settlement on
// this rail: the transfer has already happened on the ledger.
type LedgerVerifier struct {
	mirror  mirrorReader
	tokenID string
}

// NewLedgerVerifier creates a verifier for payments in the given token.
func NewLedgerVerifier(mirror mirrorReader, tokenID string) *LedgerVerifier {
	return &LedgerVerifier{mirror: mirror, tokenID: tokenID}
}

// Verify checks that the referenced transaction exists, succeeded, and
// transferred at least the required amount of the payment token to the
// agent's account. It returns the matched amount in minor units. Every
// failure path is non-fatal to the caller — it simply means no valid
// payment was found.
func (v *LedgerVerifier) Verify(ctx context.Context, cred *models.PaymentCredential, listing *models.AgentListing) (string, bool) {
	txRef := cred.TxReference()
	if txRef == "" {
		log.Warn().Msg("ledger payment missing txHash/transactionId")
		return "", false
	}

	// Mirror node expects 0.0.x-s-n format; some clients send @ instead of -.
	normalized := strings.ReplaceAll(txRef, "@", "-")

	tx, err := v.mirror.Transaction(ctx, normalized)
	if err != nil {
		log.Warn().Err(err).Str("tx", txRef).Msg("ledger payment lookup failed")
		return "", false
	}
	if tx.Result != "SUCCESS" {
		log.Warn().Str("result", tx.Result).Str("tx", txRef).Msg("ledger payment not successful")
		return "", false
	}

	required := int64(listing.PriceAFC * 100) // AFC has 2 decimals
	for _, transfer := range tx.TokenTransfers {
		if transfer.TokenID == v.tokenID &&
			transfer.Account == listing.AgentAccount &&
			transfer.Amount >= required {
			return strconv.FormatInt(transfer.Amount, 10), true
		}
	}

	log.Warn().
		Str("tx", txRef).
		Int64("required", required).
		Str("recipient", listing.AgentAccount).
		Msg("ledger payment has no matching token transfer")
	return "", false
}
