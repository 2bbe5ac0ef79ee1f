package normalize

import (
	"strings"

	"flight_shop/internal/domain"
)

// Estimation layer. Everything in this file produces approximations when the
// vendor gives no explicit data; results are marked Estimated so consumers
// can tell them from authoritative figures. Replacing these with real vendor
// feeds should not require touching the rest of the pipeline.

// Fixed split used when no explicit tax/fee line items exist.
const (
	estBaseFareShare = 0.85
	estTaxShare      = 0.12
	estFeeShare      = 0.03
)

// priceBreakdown uses explicit line items from the first OfferPrice when
// present, else derives base/taxes/fees as fixed shares of the total.
func priceBreakdown(offer map[string]any, total float64) *domain.PriceBreakdown {
	if pb := explicitBreakdown(offer); pb != nil {
		return pb
	}
	return &domain.PriceBreakdown{
		BaseFare:  round2(total * estBaseFareShare),
		Taxes:     round2(total * estTaxShare),
		Fees:      round2(total * estFeeShare),
		Estimated: true,
	}
}

func explicitBreakdown(offer map[string]any) *domain.PriceBreakdown {
	for _, opAny := range lookupSlice(offer, "PricedOffer.OfferPrice") {
		op, ok := opAny.(map[string]any)
		if !ok {
			continue
		}
		pd := lookupMap(op, "RequestedDate.PriceDetail")
		if pd == nil {
			continue
		}
		base := floatFlexible(pd, "BaseAmount")
		taxes := floatFlexible(pd, "Taxes.Total")
		if base == nil && taxes == nil {
			continue
		}

		pb := &domain.PriceBreakdown{}
		if base != nil {
			pb.BaseFare = *base
		}
		if taxes != nil {
			pb.Taxes = *taxes
		}
		if f := floatFlexible(pd, "Fees.Total"); f != nil {
			pb.Fees = *f
		}
		if s := floatFlexible(pd, "Surcharges.Total"); s != nil {
			pb.Surcharges = *s
		}
		if d := floatFlexible(pd, "Discount.DiscountAmount", "Discount.Amount"); d != nil {
			pb.Discounts = *d
		}
		for _, tAny := range lookupSlice(pd, "Taxes.Breakdown.Tax") {
			t, ok := tAny.(map[string]any)
			if !ok {
				continue
			}
			amt := floatFlexible(t, "Amount")
			if amt == nil {
				continue
			}
			pb.Items = append(pb.Items, domain.PriceItem{
				Code:        firstStr(t, "TaxCode", "TaxType.Code"),
				Description: firstStr(t, "Description", "TaxName"),
				Amount:      *amt,
			})
		}
		return pb
	}
	return nil
}

// Aircraft type prefixes/codes that imply in-seat power and Wi-Fi: modern
// widebodies (787, A350, 777, A380) plus re-engined narrowbodies.
var modernAircraft = map[string]bool{
	"77W": true, "77L": true, "788": true, "789": true, "78X": true,
	"359": true, "35K": true, "388": true, "339": true,
	"32N": true, "32Q": true, "7M8": true, "7M9": true,
}

const longHaulMinutes = 6 * 60

// inferServices derives additional-service flags from fare family keywords
// and route/aircraft heuristics when nothing explicit exists.
func inferServices(fare *domain.Fare, aircraft *domain.Aircraft, duration string, price float64) *domain.AdditionalServices {
	svc := &domain.AdditionalServices{ServicesEstimated: true}

	family := ""
	if fare != nil {
		family = strings.ToLower(fare.Family)
	}
	premiumCabin := fare != nil && fare.Class != "economy"
	flexible := strings.Contains(family, "flex") || strings.Contains(family, "premium") ||
		strings.Contains(family, "full")

	switch {
	case premiumCabin || flexible:
		svc.SeatSelection = true
	default:
		// saver/standard economy: selectable, but typically for a fee
		svc.SeatSelection = true
		svc.SeatSelectionFee = ptrF64(round2(price * 0.03))
	}

	mins := totalMinutes(duration)
	longHaul := mins >= longHaulMinutes
	svc.MealIncluded = longHaul || premiumCabin || flexible
	svc.PriorityBoarding = premiumCabin || flexible

	modern := aircraft != nil && (modernAircraft[strings.ToUpper(aircraft.Code)] ||
		strings.HasPrefix(aircraft.Code, "78") || strings.HasPrefix(aircraft.Code, "35"))
	svc.WiFi = modern
	svc.PowerOutlets = modern || longHaul
	svc.Entertainment = longHaul || modern

	return svc
}

func round2(f float64) float64 {
	if f < 0 {
		return 0
	}
	return float64(int64(f*100+0.5)) / 100
}
