package usecase

import "time"

func (l *SubscriptionLedger) SetClock(now func() time.Time)     { l.now = now }
func (s *SubscriptionService) SetClock(now func() time.Time)    { s.now = now }
func (c *RevenueShareCalculator) SetClock(now func() time.Time) { c.now = now }

var (
	NextOrderNumber = nextOrderNumber
	SplitRevenue    = splitRevenue
)
