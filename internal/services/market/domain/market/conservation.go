package market

import "fmt"

// CheckConservation verifies that every unit ever received is either still
// claimable or already withdrawn.
func (s State) CheckConservation() error {
	producers, ok := s.ProducerBalanceTotal()
	if !ok {
		return fmt.Errorf("%w: producer balances overflow", ErrLedgerImbalance)
	}
	held, overflow := addAmount(s.PlatformBalance, producers)
	if overflow {
		return fmt.Errorf("%w: held balance overflows", ErrLedgerImbalance)
	}
	accounted, overflow := addAmount(held, s.TotalWithdrawn)
	if overflow {
		return fmt.Errorf("%w: accounted total overflows", ErrLedgerImbalance)
	}
	if accounted != s.TotalReceived {
		return fmt.Errorf("%w: received %s, held %s, withdrawn %s",
			ErrLedgerImbalance, s.TotalReceived, held, s.TotalWithdrawn)
	}
	return nil
}
