package normalize

import (
	"strings"

	"flight_shop/internal/domain"
)

// resolveFare follows the offer's fare-component references into the fare
// list, then cross-references the penalty and price-class tables. Class and
// family start from the fare basis code and are overridden by price-class
// data when the vendor supplies it.
func resolveFare(offer map[string]any, firstSeg map[string]any, dl dataLists) *domain.Fare {
	entry := fareEntry(offer, firstSeg, dl)
	if entry == nil {
		return nil
	}

	basis := firstStr(entry, "FareBasisCode.Code", "Fare.FareCode.Code", "FareBasisCode")
	f := &domain.Fare{BasisCode: basis}
	f.Class, f.Family = classifyFareBasis(basis)

	// Without penalty data, flexibility follows the fare family.
	f.Refundable = f.Family == "flexible"
	f.Changeable = f.Family != "saver"

	refundable, changeable, sawPenalty := true, true, false
	for _, ref := range refsAt(entry, "refs", "Fare.FareDetail.Price.refs") {
		if pen, ok := dl.penalties[ref]; ok {
			ps, refOK, chgOK := mapPenalties(pen)
			f.Penalties = append(f.Penalties, ps...)
			refundable = refundable && refOK
			changeable = changeable && chgOK
			sawPenalty = true
			continue
		}
		if pc, ok := dl.priceClasses[ref]; ok {
			applyPriceClass(f, pc)
		}
	}
	if sawPenalty {
		f.Refundable = refundable
		f.Changeable = changeable
	}

	return f
}

// fareEntry tries the offer's FareDetail component refs first, then the
// first segment's class-of-service refs.
func fareEntry(offer map[string]any, firstSeg map[string]any, dl dataLists) map[string]any {
	for _, opAny := range lookupSlice(offer, "PricedOffer.OfferPrice") {
		op, ok := opAny.(map[string]any)
		if !ok {
			continue
		}
		for _, fcAny := range lookupSlice(op, "FareDetail.FareComponent") {
			fc, ok := fcAny.(map[string]any)
			if !ok {
				continue
			}
			for _, ref := range refsAt(fc, "refs") {
				if e, ok := dl.fares[ref]; ok {
					return e
				}
			}
		}
	}
	if firstSeg != nil {
		for _, ref := range refsAt(firstSeg, "ClassOfService.refs") {
			if e, ok := dl.fares[ref]; ok {
				return e
			}
		}
	}
	return nil
}

// classifyFareBasis infers cabin class from the code's first character and
// fare family from well-known substrings. Y→economy, W→premium economy,
// J/C→business, F→first; FLX/FLEX→flexible, PRM/PREM→premium, SAV/SAVE→saver.
func classifyFareBasis(basis string) (class, family string) {
	class, family = "economy", "standard"
	code := strings.ToUpper(strings.TrimSpace(basis))
	if code == "" {
		return class, family
	}
	switch code[0] {
	case 'Y':
		class = "economy"
	case 'W':
		class = "premium_economy"
	case 'J', 'C':
		class = "business"
	case 'F':
		class = "first"
	}
	switch {
	case strings.Contains(code, "FLX") || strings.Contains(code, "FLEX"):
		family = "flexible"
	case strings.Contains(code, "PRM") || strings.Contains(code, "PREM"):
		family = "premium"
	case strings.Contains(code, "SAV") || strings.Contains(code, "SAVE"):
		family = "saver"
	}
	return class, family
}

// mapPenalties flattens one penalty table entry. The vendor marks the
// application window with coded values: PDE = prior to departure,
// ADE = after departure, NOS = no show.
func mapPenalties(pen map[string]any) (out []domain.Penalty, refundable, changeable bool) {
	// A change/cancel fee does not forbid the action; only explicit
	// non-refundable / non-changeable flags do.
	refundable = penaltyFlag(pen, "RefundableInd", true)
	if penaltyFlag(pen, "NonRefundableInd", false) {
		refundable = false
	}
	changeable = !penaltyFlag(pen, "NonChangeableInd", false)

	for _, dAny := range lookupSlice(pen, "Details.Detail") {
		d, ok := dAny.(map[string]any)
		if !ok {
			continue
		}
		p := domain.Penalty{
			Type:        penaltyType(lookupStr(d, "Type")),
			Application: lookupStr(d, "Application.Code"),
			Remark:      firstStr(d, "Remarks.Remark", "Remark"),
		}
		for _, aAny := range lookupSlice(d, "Amounts.Amount") {
			a, ok := aAny.(map[string]any)
			if !ok {
				continue
			}
			amt := floatFlexible(a, "CurrencyAmountValue", "Value")
			if amt == nil {
				continue
			}
			if p.Currency == "" {
				p.Currency = lookupStr(a, "CurrencyAmountValue.Code")
			}
			switch strings.ToUpper(lookupStr(a, "AmountApplication")) {
			case "PDE", "PRIOR", "BEFORE":
				p.BeforeDeparture = amt
			case "ADE", "AFTER":
				p.AfterDeparture = amt
			case "NOS", "NOSHOW", "NO-SHOW":
				p.NoShow = amt
			default:
				if p.BeforeDeparture == nil {
					p.BeforeDeparture = amt
				}
			}
		}
		out = append(out, p)
	}
	return out, refundable, changeable
}

func penaltyType(t string) string {
	switch strings.ToLower(t) {
	case "change", "chg":
		return "change"
	case "cancel", "cancellation", "cnx":
		return "cancel"
	case "noshow", "no-show", "no show":
		return "noshow"
	default:
		if t == "" {
			return "cancel"
		}
		return strings.ToLower(t)
	}
}

func penaltyFlag(m map[string]any, field string, def bool) bool {
	if b, ok := scalar(lookupAny(m, field)).(bool); ok {
		return b
	}
	return def
}

// applyPriceClass overrides the inferred classification with the vendor's
// named fare bundle (e.g. "Economy Light").
func applyPriceClass(f *domain.Fare, pc map[string]any) {
	name := firstStr(pc, "Name", "ClassOfService.MarketingName", "Code")
	if name == "" {
		return
	}
	f.Family = name
	low := strings.ToLower(name)
	switch {
	case strings.Contains(low, "first"):
		f.Class = "first"
	case strings.Contains(low, "business"):
		f.Class = "business"
	case strings.Contains(low, "premium"):
		f.Class = "premium_economy"
	case strings.Contains(low, "economy"):
		f.Class = "economy"
	}
}
