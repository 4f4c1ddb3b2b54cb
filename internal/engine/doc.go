// Package engine computes everything a bundle page needs from a bundle
// definition and a customer's in-progress selection: which tiers and products
// unlock, what the total charge is, how it splits between publishers, the
// platform and charity, whether the bundle is on sale right now, whether stock
// allows a purchase, and whether an earlier purchase can be upgraded.
//
// Every function is a pure transform of its arguments. Nothing reads a clock,
// the network or storage; the current time is always passed in.
package engine
