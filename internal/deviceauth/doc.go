// Package deviceauth implements the device-code login flow against the
// remote authorization server.
//
// A Flow attempt moves Idle → AwaitingApproval → Approved | Expired.
// Start issues one request for a device code and verification URL,
// hands the URL to the browser opener, and polls on a fixed cadence
// until the server reports approval or expiry, or the attempt is
// cancelled. Approval results in exactly one Login call on the
// injected sink; individual poll failures are retried silently.
//
// The split between the one-shot Start and the recurring poll avoids
// holding a connection open and tolerates short network blips, at the
// cost of up to one interval of staleness in detecting approval.
package deviceauth
