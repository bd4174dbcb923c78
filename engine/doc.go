// Package engine implements the cross-space post replication and voting
// coordination core.
//
// The module owns post submission (quota, ban and channel-configuration
// policy), platinum fan-out of posts to linked spaces, the single
// authoritative vote tally per logical post, entitlement grant lifecycle,
// and the scheduled pin/entitlement expiry sweeps. Business rules live in
// the application/domain layers; messaging-platform and database concerns
// sit behind ports and adapters.
package engine
