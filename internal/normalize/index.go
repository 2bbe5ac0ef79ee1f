package normalize

// dataLists holds the one-time key→entry indexes built from the response's
// DataLists section. The vendor ships every list as parallel arrays cross
// referenced by key; indexing once trades memory for O(1) lookups during
// per-offer resolution.
type dataLists struct {
	segments     map[string]map[string]any
	flights      map[string]map[string]any
	carryOn      map[string]map[string]any
	checkedBags  map[string]map[string]any
	fares        map[string]map[string]any
	penalties    map[string]map[string]any
	priceClasses map[string]map[string]any
}

func indexDataLists(dl map[string]any) dataLists {
	return dataLists{
		segments:     buildIndex(dl, "FlightSegmentList.FlightSegment", "SegmentKey"),
		flights:      buildIndex(dl, "FlightList.Flight", "FlightKey"),
		carryOn:      buildIndex(dl, "CarryOnAllowanceList.CarryOnAllowance", "ListKey"),
		checkedBags:  buildIndex(dl, "CheckedBagAllowanceList.CheckedBagAllowance", "ListKey"),
		fares:        buildIndex(dl, "FareList.FareGroup", "ListKey"),
		penalties:    buildIndex(dl, "PenaltyList.Penalty", "ObjectKey"),
		priceClasses: buildIndex(dl, "PriceClassList.PriceClass", "ObjectKey"),
	}
}

// buildIndex maps each entry's key field to the entry. First match wins when
// keys are duplicated, preserving the linear-scan semantics the lists imply.
func buildIndex(dl map[string]any, path string, keyFields ...string) map[string]map[string]any {
	items := lookupSlice(dl, path)
	if len(items) == 0 {
		return nil
	}
	idx := make(map[string]map[string]any, len(items))
	for _, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for _, kf := range keyFields {
			k := lookupStr(entry, kf)
			if k == "" {
				continue
			}
			if _, dup := idx[k]; !dup {
				idx[k] = entry
			}
			break
		}
	}
	return idx
}
