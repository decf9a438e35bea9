package stamps

import (
	"fmt"

	model "github.com/glkeru/loyalty/stamps/internal/models"
)

// Сверка счетчиков клиента с его журналом (новые записи в начале):
//
//	totalStamps     == сумма earned по всем записям
//	rewardsRedeemed == число redeem
//	stamps          == сумма earn после последнего redeem (если излишек не переносится)
func Reconcile(c model.Customer, tnxs []model.Transaction) error {
	var earned, redeems, sinceRedeem int
	seenRedeem := false
	for _, t := range tnxs {
		if t.CustomerID != c.ID {
			continue
		}
		earned += t.Earned
		switch t.Type {
		case model.REDEEM:
			redeems++
			seenRedeem = true
		case model.EARN:
			if !seenRedeem {
				sinceRedeem += t.Stamps
			}
		}
	}

	if earned != c.TotalStamps {
		return fmt.Errorf("customer %s: totalStamps %d, ledger %d: %w", c.ID, c.TotalStamps, earned, model.ErrLedgerMismatch)
	}
	if redeems != c.RewardsRedeemed {
		return fmt.Errorf("customer %s: rewardsRedeemed %d, ledger %d: %w", c.ID, c.RewardsRedeemed, redeems, model.ErrLedgerMismatch)
	}
	if !CarryOverSurplus && sinceRedeem != c.Stamps {
		return fmt.Errorf("customer %s: stamps %d, ledger %d: %w", c.ID, c.Stamps, sinceRedeem, model.ErrLedgerMismatch)
	}
	return nil
}
