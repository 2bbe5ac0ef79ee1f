package normalize

// The vendor has shipped at least three structurally different ways of
// expressing "this offer covers these segments" across response variants.
// Each shape gets its own resolver; they are tried in fixed priority order
// and the first one that yields keys wins. A new vendor variant means adding
// one entry to assocResolvers, nothing else.

type resolved struct {
	segmentKeys []string
	flight      map[string]any // the FlightList entry the keys came from, when any
}

type assocResolver func(offer map[string]any, dl dataLists) resolved

var assocResolvers = []assocResolver{
	resolveFlightsOverview,
	resolveSegmentReferences,
	resolveFlightReferences,
}

// resolveSegments returns the offer's ordered segment keys, or an empty
// resolution when no known shape matches (the offer is then unresolvable).
func resolveSegments(offer map[string]any, dl dataLists) resolved {
	for _, try := range assocResolvers {
		if r := try(offer, dl); len(r.segmentKeys) > 0 {
			r.segmentKeys = dedupeKeys(r.segmentKeys)
			return r
		}
	}
	return resolved{}
}

// dedupeKeys drops repeated keys, first occurrence wins. The vendor repeats
// identical association blocks per passenger type, so the same leg shows up
// once per OfferPrice.
func dedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Shape 1: offer-level FlightsOverview listing flight refs, each flight in
// turn carrying its segment references.
func resolveFlightsOverview(offer map[string]any, dl dataLists) resolved {
	refs := refsAt(offer, "FlightsOverview.FlightRef")
	return segmentsViaFlights(refs, dl)
}

// Shape 2: direct typed segment refs inside the priced offer's associations.
func resolveSegmentReferences(offer map[string]any, dl dataLists) resolved {
	var keys []string
	for _, a := range offerAssociations(offer) {
		keys = append(keys, refsAt(a, "ApplicableFlight.FlightSegmentReference")...)
	}
	return resolved{segmentKeys: keys}
}

// Shape 3: origin/destination-keyed flight references inside the
// associations, resolved through the FlightList.
func resolveFlightReferences(offer map[string]any, dl dataLists) resolved {
	var refs []string
	for _, a := range offerAssociations(offer) {
		refs = append(refs, refsAt(a, "ApplicableFlight.FlightReferences")...)
	}
	return segmentsViaFlights(refs, dl)
}

// offerAssociations collects the association blocks of every OfferPrice.
func offerAssociations(offer map[string]any) []map[string]any {
	var out []map[string]any
	for _, opAny := range lookupSlice(offer, "PricedOffer.OfferPrice") {
		op, ok := opAny.(map[string]any)
		if !ok {
			continue
		}
		for _, aAny := range lookupSlice(op, "RequestedDate.Associations") {
			if a, ok := aAny.(map[string]any); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

func segmentsViaFlights(flightRefs []string, dl dataLists) resolved {
	var r resolved
	for _, fr := range flightRefs {
		fl, ok := dl.flights[fr]
		if !ok {
			continue
		}
		if r.flight == nil {
			r.flight = fl
		}
		r.segmentKeys = append(r.segmentKeys, refsAt(fl, "SegmentReferences")...)
	}
	return r
}
