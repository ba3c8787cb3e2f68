package metrics

import (
	"time"
)

type nopCollector struct{}

var _ Collector = &nopCollector{}

var NopCollector = &nopCollector{}

func (c *nopCollector) OperationBuilt()                {}
func (c *nopCollector) MiddlewareFailed(string)        {}
func (c *nopCollector) AccountResolved()               {}
func (c *nopCollector) SettlementPollExecuted()        {}
func (c *nopCollector) OperationSettled(time.Duration) {}
func (c *nopCollector) SettlementTimedOut()            {}
func (c *nopCollector) OperationsSettledByTracker(int) {}
