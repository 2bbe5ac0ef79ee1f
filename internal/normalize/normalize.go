// Package normalize flattens the vendor's air-shopping response into stable
// FlightOffer records. It is a pure transformation: no I/O, no shared state,
// and it never panics or errors on malformed per-offer data. Unresolvable
// offers are dropped and the rest of the response survives.
package normalize

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"flight_shop/internal/adapters/observability"
	"flight_shop/internal/domain"
)

// seatsUnknown is emitted when the vendor gives no availability count.
const seatsUnknown = "9+"

// Normalize converts a raw air-shopping payload into ordered FlightOffer
// records plus metadata. A response missing its top-level structure yields
// an empty result flagged IsFallback so the caller degrades gracefully
// instead of failing the whole search.
func Normalize(raw map[string]any) domain.SearchResult {
	offers := rawOffers(raw)
	dl := lookupMap(raw, "DataLists")
	switch {
	case dl == nil:
		return fallback("response has no DataLists section")
	case len(offers) == 0:
		return fallback("response has no airline offers")
	}

	idx := indexDataLists(dl)
	currency := responseCurrency(offers)

	out := make([]domain.FlightOffer, 0, len(offers))
	dropped := 0
	for _, rawOffer := range offers {
		fo, ok := mapOffer(rawOffer, idx, currency)
		if !ok {
			dropped++
			continue
		}
		out = append(out, fo)
	}
	observability.ObserveOffers(len(out), dropped)
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("kept", len(out)).Msg("offers dropped during normalization")
	}

	return domain.SearchResult{
		Offers: out,
		Meta: domain.SearchMeta{
			Total:    len(out),
			Currency: currency,
		},
	}
}

func fallback(reason string) domain.SearchResult {
	log.Warn().Str("reason", reason).Msg("air-shopping response unusable")
	return domain.SearchResult{
		Meta: domain.SearchMeta{
			IsFallback: true,
			Error:      reason,
			Message:    "no usable offers in upstream response",
		},
	}
}

// rawOffers digs out OffersGroup.AirlineOffers[].AirlineOffer[] across all
// airline groups, keeping response order.
func rawOffers(raw map[string]any) []map[string]any {
	var out []map[string]any
	for _, gAny := range lookupSlice(raw, "OffersGroup.AirlineOffers") {
		g, ok := gAny.(map[string]any)
		if !ok {
			continue
		}
		for _, oAny := range lookupSlice(g, "AirlineOffer") {
			if o, ok := oAny.(map[string]any); ok {
				out = append(out, o)
			}
		}
	}
	return out
}

// responseCurrency takes the first offer's currency code; offers may still
// override it individually.
func responseCurrency(offers []map[string]any) string {
	for _, o := range offers {
		if c := offerCurrency(o); c != "" {
			return c
		}
	}
	return ""
}

func offerCurrency(o map[string]any) string {
	return firstStr(o,
		"TotalPrice.DetailCurrencyPrice.Total.Code",
		"TotalPrice.SimpleCurrencyPrice.Code",
	)
}

// mapOffer assembles one FlightOffer. Returns ok=false when the offer's
// segment references cannot be resolved; such offers are not emitted.
func mapOffer(offer map[string]any, dl dataLists, currency string) (domain.FlightOffer, bool) {
	res := resolveSegments(offer, dl)
	if len(res.segmentKeys) == 0 {
		return domain.FlightOffer{}, false
	}

	// Keys and entries stay paired: a key missing from the list must not
	// shift a later segment under the wrong ID.
	keys := make([]string, 0, len(res.segmentKeys))
	segs := make([]map[string]any, 0, len(res.segmentKeys))
	for _, key := range res.segmentKeys {
		if seg, ok := dl.segments[key]; ok {
			keys = append(keys, key)
			segs = append(segs, seg)
		}
	}
	if len(segs) == 0 {
		return domain.FlightOffer{}, false
	}

	first, last := segs[0], segs[len(segs)-1]

	id := lookupStr(offer, "OfferID")
	if id == "" {
		id = "offer-" + uuid.NewString()
	}

	fo := domain.FlightOffer{
		ID:        id,
		Airline:   segmentAirline(first),
		Departure: segmentEndpoint(first, "Departure"),
		Arrival:   segmentEndpoint(last, "Arrival"),
		Duration:  offerDuration(res.flight, segs),
		Stops:     len(segs) - 1,
		Currency:  currency,
		Aircraft:  segmentAircraft(first),
	}

	// Connecting airports: every segment's arrival except the last.
	fo.StopDetails = make([]string, 0, fo.Stops)
	for _, seg := range segs[:len(segs)-1] {
		fo.StopDetails = append(fo.StopDetails, lookupStr(seg, "Arrival.AirportCode"))
	}

	if c := offerCurrency(offer); c != "" {
		fo.Currency = c
	}
	if p := floatFlexible(offer,
		"TotalPrice.DetailCurrencyPrice.Total.value",
		"TotalPrice.DetailCurrencyPrice.Total",
		"TotalPrice.SimpleCurrencyPrice.value",
	); p != nil && *p >= 0 {
		fo.Price = *p
	}

	fo.SeatsAvailable = seatsUnknown
	if s := floatFlexible(first, "ClassOfService.SeatsLeft"); s != nil && *s > 0 {
		fo.SeatsAvailable = fmt.Sprintf("%d", int(*s))
	}

	fo.Segments = make([]domain.Segment, 0, len(segs))
	for i, seg := range segs {
		fo.Segments = append(fo.Segments, mapSegment(keys[i], seg))
	}

	fo.Baggage = resolveBaggage(first, dl)
	fo.Fare = resolveFare(offer, first, dl)
	fo.PriceBreakdown = priceBreakdown(offer, fo.Price)
	fo.AdditionalServices = inferServices(fo.Fare, fo.Aircraft, fo.Duration, fo.Price)

	return fo, true
}

func mapSegment(key string, seg map[string]any) domain.Segment {
	s := domain.Segment{
		ID:        key,
		Airline:   segmentAirline(seg),
		Departure: segmentEndpoint(seg, "Departure"),
		Arrival:   segmentEndpoint(seg, "Arrival"),
		Duration:  segmentDuration(seg),
		Aircraft:  segmentAircraft(seg),
	}
	if op := carrier(seg, "OperatingCarrier"); op.Code != "" && op.Code != s.Airline.Code {
		s.OperatingCarrier = &op
	}
	return s
}

func segmentAirline(seg map[string]any) domain.Airline {
	a := carrier(seg, "MarketingCarrier")
	if a.Code == "" {
		a = carrier(seg, "OperatingCarrier")
	}
	return a
}

func carrier(seg map[string]any, field string) domain.Airline {
	c := lookupMap(seg, field)
	if c == nil {
		return domain.Airline{}
	}
	code := lookupStr(c, "AirlineID")
	a := domain.Airline{
		Code:         code,
		Name:         lookupStr(c, "Name"),
		FlightNumber: lookupStr(c, "FlightNumber"),
	}
	if a.Name == "" {
		a.Name = code
	}
	if code != "" {
		a.Logo = fmt.Sprintf("https://pics.avs.io/200/50/%s.png", code)
	}
	if a.FlightNumber != "" && code != "" && !strings.HasPrefix(a.FlightNumber, code) {
		a.FlightNumber = code + a.FlightNumber
	}
	return a
}

func segmentEndpoint(seg map[string]any, field string) domain.Endpoint {
	e := domain.Endpoint{
		Airport:     lookupStr(seg, field+".AirportCode"),
		AirportName: ptrStr(lookupStr(seg, field+".AirportName")),
		Terminal:    ptrStr(firstStr(seg, field+".Terminal.Name", field+".Terminal")),
	}
	date := lookupStr(seg, field+".Date")
	tm := lookupStr(seg, field+".Time")
	switch {
	case date != "" && tm != "":
		e.DateTime = date + "T" + tm
	case date != "":
		e.DateTime = date
	default:
		e.DateTime = tm
	}
	return e
}

func segmentAircraft(seg map[string]any) *domain.Aircraft {
	code := lookupStr(seg, "Equipment.AircraftCode")
	if code == "" {
		return nil
	}
	return &domain.Aircraft{Code: code, Name: lookupStr(seg, "Equipment.Name")}
}
