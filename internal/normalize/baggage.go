package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"flight_shop/internal/domain"
)

// Documented defaults used when the allowance text gives nothing to parse.
// A standard IATA cabin bag is 55+40+20 cm; values filled from these are
// estimates, not vendor data.
const (
	defaultCarryOnDimensionsCm = 55 + 40 + 20
	defaultCarryOnWeightKg     = 7
	defaultCheckedWeightKg     = 23
)

var (
	weightRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|kilo(?:gram)?s?|lbs?|pounds?)`)
	dimsRe   = regexp.MustCompile(`(?i)(\d+)\s*[x×*]\s*(\d+)\s*[x×*]\s*(\d+)`)
	linearRe = regexp.MustCompile(`(?i)(\d+)\s*(?:linear\s*)?cm`)
	piecesRe = regexp.MustCompile(`(?i)(\d+)\s*(?:piece|pc|bag)s?`)
)

// resolveBaggage follows the first segment's carry-on/checked references into
// the allowance lists. Everything here is best effort: free-form description
// text is pattern matched and gaps are filled with standard defaults.
func resolveBaggage(firstSeg map[string]any, dl dataLists) *domain.Baggage {
	var b domain.Baggage
	for _, ref := range refsAt(firstSeg, "BagDetailAssociation.CarryOnReferences") {
		if entry, ok := dl.carryOn[ref]; ok {
			b.CarryOn = mapCarryOn(entry)
			break
		}
	}
	for _, ref := range refsAt(firstSeg, "BagDetailAssociation.CheckedBagReferences") {
		if entry, ok := dl.checkedBags[ref]; ok {
			b.Checked = mapCheckedBag(entry)
			break
		}
	}
	if b.CarryOn == nil && b.Checked == nil {
		return nil
	}
	return &b
}

func mapCarryOn(entry map[string]any) *domain.CarryOnAllowance {
	desc := allowanceText(entry)
	out := &domain.CarryOnAllowance{
		Pieces:       allowancePieces(entry, desc, 1),
		Description:  desc,
		PersonalItem: strings.Contains(strings.ToLower(desc), "personal item"),
	}

	if w := floatFlexible(entry, "WeightAllowance.MaximumWeight.Value"); w != nil {
		out.WeightKg = ptrF64(toKilograms(*w, lookupStr(entry, "WeightAllowance.MaximumWeight.UOM")))
	} else if w, ok := parseWeightText(desc); ok {
		out.WeightKg = ptrF64(w)
	} else {
		out.WeightKg = ptrF64(defaultCarryOnWeightKg)
	}

	if d, ok := parseDimensionsText(desc); ok {
		out.DimensionsCm = ptrF64(d)
	} else {
		out.DimensionsCm = ptrF64(defaultCarryOnDimensionsCm)
	}
	return out
}

func mapCheckedBag(entry map[string]any) *domain.CheckedAllowance {
	desc := allowanceText(entry)
	out := &domain.CheckedAllowance{
		Pieces:      allowancePieces(entry, desc, 1),
		Description: desc,
	}

	if w := floatFlexible(entry, "WeightAllowance.MaximumWeight.Value"); w != nil {
		out.WeightKg = ptrF64(toKilograms(*w, lookupStr(entry, "WeightAllowance.MaximumWeight.UOM")))
	} else if w, ok := parseWeightText(desc); ok {
		out.WeightKg = ptrF64(w)
	} else {
		out.WeightKg = ptrF64(defaultCheckedWeightKg)
	}

	if d, ok := parseDimensionsText(desc); ok {
		out.DimensionsCm = ptrF64(d)
	}

	low := strings.ToLower(desc)
	for _, item := range []string{"sports equipment", "ski", "golf", "bicycle", "surfboard", "musical instrument"} {
		if strings.Contains(low, item) {
			out.SpecialItems = append(out.SpecialItems, item)
		}
	}
	if f := floatFlexible(entry, "OverweightFee.Amount"); f != nil {
		out.OverweightFee = f
	}
	if f := floatFlexible(entry, "Discount.Percent", "AllowanceDiscount.Percent"); f != nil {
		out.DiscountPercent = f
	}
	return out
}

// allowanceText joins the entry's description lines into one string.
func allowanceText(entry map[string]any) string {
	var parts []string
	for _, dAny := range lookupSlice(entry, "AllowanceDescription.Descriptions.Description") {
		d, ok := dAny.(map[string]any)
		if !ok {
			continue
		}
		if t := lookupStr(d, "Text"); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		if t := firstStr(entry, "AllowanceDescription.ApplicableParty", "Description"); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "; ")
}

func allowancePieces(entry map[string]any, desc string, def int) int {
	if f := floatFlexible(entry, "PieceAllowance.TotalQuantity"); f != nil && *f > 0 {
		return int(*f)
	}
	if m := piecesRe.FindStringSubmatch(desc); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseWeightText recovers "23kg" / "50 lbs" style figures, normalized to kg.
func parseWeightText(s string) (float64, bool) {
	m := weightRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return toKilograms(v, m[2]), true
}

// parseDimensionsText recovers either "55x40x20" (summed) or a combined
// linear figure like "115 cm".
func parseDimensionsText(s string) (float64, bool) {
	if m := dimsRe.FindStringSubmatch(s); m != nil {
		sum := 0.0
		for _, part := range m[1:] {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return 0, false
			}
			sum += v
		}
		return sum, true
	}
	if m := linearRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func toKilograms(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "lb", "lbs", "pound", "pounds":
		return v * 0.45359237
	default:
		return v
	}
}
