package payments

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/ledger"
	"github.com/agentfi/agentfi/pkg/models"
)

// Split ratios for inter-agent payments.
const (
	SplitOwner    = 0.70
	SplitAgent    = 0.20
	SplitPlatform = 0.10
)

// SplitService divides one inter-agent payment into three destination
// transfers: 70% to the called agent's owner, 20% to the agent's own
// account, 10% to the platform. The legs are deliberately independent —
// a failed platform-fee transfer never blocks the owner from being paid.
type SplitService struct {
	ledger          ledger.Client
	tokenID         string
	platformAccount string
	explorerBase    string
}

// NewSplitService creates the split service transferring the given token.
// platformAccount receives the 10% fee leg.
func NewSplitService(client ledger.Client, tokenID, platformAccount, explorerBase string) *SplitService {
	return &SplitService{
		ledger:          client,
		tokenID:         tokenID,
		platformAccount: platformAccount,
		explorerBase:    explorerBase,
	}
}

// Shares computes the three rounded shares for a total. Each share rounds
// to 2 decimals independently; the rounding remainder is folded entirely
// into the owner share so the three amounts always sum exactly to total.
func Shares(total float64) (owner, agent, platform float64) {
	owner = round2(total * SplitOwner)
	agent = round2(total * SplitAgent)
	platform = round2(total * SplitPlatform)

	// Unconditional: a negative remainder is subtracted from the owner too.
	remainder := round2(total - owner - agent - platform)
	owner = round2(owner + remainder)
	return owner, agent, platform
}

// Split executes the three-way payment from the payer's account. All three
// legs are attempted regardless of earlier failures; each leg's outcome is
// recorded independently and overall success reflects only the owner leg.
func (s *SplitService) Split(ctx context.Context, total float64, payerAccount, ownerAccount, agentAccount string) models.SplitResult {
	owner, agent, platform := Shares(total)

	result := models.SplitResult{
		TotalAmount: fmt.Sprintf("%.2f AFC", total),
		Legs:        make(map[string]models.TransferOutcome, 3),
	}

	legs := []struct {
		name   string
		to     string
		amount float64
	}{
		{models.LegOwner, ownerAccount, owner},
		{models.LegAgent, agentAccount, agent},
		{models.LegPlatform, s.platformAccount, platform},
	}

	for _, leg := range legs {
		result.Legs[leg.name] = s.transfer(ctx, payerAccount, leg.to, leg.amount)
	}

	result.Success = result.Legs[models.LegOwner].Status == models.TransferSuccess
	return result
}

func (s *SplitService) transfer(ctx context.Context, from, to string, amount float64) models.TransferOutcome {
	outcome := models.TransferOutcome{
		Recipient: to,
		Amount:    fmt.Sprintf("%.2f AFC", amount),
	}

	txID, err := s.ledger.TransferToken(ctx, s.tokenID, from, to, int64(math.Round(amount*100)))
	if err != nil {
		log.Error().Err(err).Str("to", to).Float64("amount", amount).Msg("split leg failed")
		outcome.Status = models.TransferFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = models.TransferSuccess
	outcome.TransactionID = txID
	if s.explorerBase != "" {
		outcome.ExplorerURL = s.explorerBase + "/transaction/" + txID
	}
	return outcome
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
