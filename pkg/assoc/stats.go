package assoc

// Stats is a point-in-time snapshot of a Table's operation counters.
// Suitable for capacity tuning: a high ProbesFind/Finds ratio signals a
// table that is too full or a poorly distributed hash.
type Stats struct {
	Finds   uint64
	Adds    uint64
	Removes uint64
	Resizes uint64

	ProbesFind   uint64
	ProbesAdd    uint64
	ProbesRemove uint64
	ProbesRehash uint64
}

// counters holds the mutable fields embedded in Table. Kept as a separate
// type so Stats() can return a plain copy without exposing the live
// fields to callers.
type counters struct {
	finds   uint64
	adds    uint64
	removes uint64
	resizes uint64

	probesFind   uint64
	probesAdd    uint64
	probesRemove uint64
	probesRehash uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Finds:        c.finds,
		Adds:         c.adds,
		Removes:      c.removes,
		Resizes:      c.resizes,
		ProbesFind:   c.probesFind,
		ProbesAdd:    c.probesAdd,
		ProbesRemove: c.probesRemove,
		ProbesRehash: c.probesRehash,
	}
}

func (c *counters) reset() {
	*c = counters{}
}
