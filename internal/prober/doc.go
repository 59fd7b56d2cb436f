// Package prober performs layered reachability checks against a single
// network address.
//
// This package is internal to Pingboard. A probe walks three tiers in a
// fixed order and stops at the first tier that produces a verdict:
//
//  1. HTTP GET http://<address> (redirects followed, 3s timeout)
//  2. HTTPS GET https://<address> (certificate validation disabled)
//  3. Bare TCP connect on ports 80 then 443 (2s timeout per port)
//
// Only refused, timed-out or otherwise failed connections fall through to
// the next tier. An HTTP answer of any status, or a timeout while waiting for
// one, ends the probe on the tier that produced it. Every path ends in a
// classified [Result]; [Prober.Probe] never returns an error.
//
// The main components are:
//
//   - [Prober]: runs the tiers for one address
//   - [Outcome]: the tagged result of a single HTTP or HTTPS attempt
//   - [Result]: the final verdict for an address
package prober
