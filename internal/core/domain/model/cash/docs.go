// Package cash contains the daily cash collection record of a driver.
//
// Collected cash is the sum of append-only entries, one per delivered cash
// stop. Expected cash is not stored: it is recomputed from the delivery ledger
// every time a record is evaluated, so late deliveries are always reflected.
package cash
