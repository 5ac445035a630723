// See table.go, description.go, fillup.go, and stats.go for the
// component boundaries: Table owns the slot array and probing/growth
// logic, Description supplies per-element hashing/equality/clearing,
// FillUpHandler is the optional growth-veto policy, and Stats exposes the
// operation counters used for capacity tuning.
package assoc
