// Package ratelimit provides the token bucket that paces outgoing
// translation calls.
//
// A token bucket is used rather than a fixed inter-call delay because
// the workload is bursty: a consumer translating N elements in one
// workflow run legitimately fires a burst of calls, and the bucket
// absorbs bursts up to its capacity while converging to the sustained
// refill rate.
//
// The bucket is independent of the daily character quota; see the ledger
// and policy packages for quota enforcement.
package ratelimit
