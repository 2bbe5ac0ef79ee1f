package domain

// FlightOffer is one priced itinerary option, flattened from the upstream
// air-shopping response. Records are built fresh on every normalization pass
// and never mutated afterward.
type FlightOffer struct {
	ID          string   `json:"id"`
	Airline     Airline  `json:"airline"`
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	Duration    string   `json:"duration"` // "#h #m"
	Stops       int      `json:"stops"`
	StopDetails []string `json:"stopDetails"` // connecting airport codes, len == Stops
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`

	// SeatsAvailable is a coarse indicator; the vendor rarely gives exact
	// counts, so "9+" style sentinels are expected.
	SeatsAvailable string `json:"seatsAvailable"`

	Baggage  *Baggage  `json:"baggage,omitempty"`
	Fare     *Fare     `json:"fare,omitempty"`
	Aircraft *Aircraft `json:"aircraft,omitempty"`

	Segments []Segment `json:"segments"` // len >= 1

	PriceBreakdown     *PriceBreakdown     `json:"priceBreakdown,omitempty"`
	AdditionalServices *AdditionalServices `json:"additionalServices,omitempty"`
}

type Airline struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Logo         string `json:"logo,omitempty"`
	FlightNumber string `json:"flightNumber,omitempty"`
}

type Endpoint struct {
	Airport     string  `json:"airport"`
	AirportName *string `json:"airportName,omitempty"`
	DateTime    string  `json:"dateTime"` // combined date + time as supplied
	Terminal    *string `json:"terminal,omitempty"`
}

type Aircraft struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Segment is a single physical leg. OperatingCarrier is set only when it
// differs from the marketing airline (codeshare).
type Segment struct {
	ID               string    `json:"id"`
	Airline          Airline   `json:"airline"`
	Departure        Endpoint  `json:"departure"`
	Arrival          Endpoint  `json:"arrival"`
	Duration         string    `json:"duration"`
	Aircraft         *Aircraft `json:"aircraft,omitempty"`
	OperatingCarrier *Airline  `json:"operatingCarrier,omitempty"`
}

type Baggage struct {
	CarryOn *CarryOnAllowance `json:"carryOn,omitempty"`
	Checked *CheckedAllowance `json:"checked,omitempty"`
}

// CarryOnAllowance values recovered from free-form vendor text are estimates;
// when the vendor is silent the standard 55+40+20 cm cabin bag is assumed.
type CarryOnAllowance struct {
	Pieces       int      `json:"pieces"`
	WeightKg     *float64 `json:"weightKg,omitempty"`
	DimensionsCm *float64 `json:"dimensionsCm,omitempty"` // summed linear dimensions
	Description  string   `json:"description,omitempty"`
	PersonalItem bool     `json:"personalItem"`
}

type CheckedAllowance struct {
	Pieces          int      `json:"pieces"`
	WeightKg        *float64 `json:"weightKg,omitempty"`
	DimensionsCm    *float64 `json:"dimensionsCm,omitempty"`
	Description     string   `json:"description,omitempty"`
	SpecialItems    []string `json:"specialItems,omitempty"`
	OverweightFee   *float64 `json:"overweightFee,omitempty"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

type Fare struct {
	BasisCode  string    `json:"basisCode,omitempty"`
	Class      string    `json:"class,omitempty"`  // economy|premium_economy|business|first
	Family     string    `json:"family,omitempty"` // standard|flexible|premium|saver or vendor name
	Refundable bool      `json:"refundable"`
	Changeable bool      `json:"changeable"`
	Penalties  []Penalty `json:"penalties,omitempty"`
}

// Penalty is a change or cancellation fee rule attached to a fare.
type Penalty struct {
	Type            string   `json:"type"` // change|cancel|noshow
	Application     string   `json:"application,omitempty"`
	BeforeDeparture *float64 `json:"beforeDeparture,omitempty"`
	AfterDeparture  *float64 `json:"afterDeparture,omitempty"`
	NoShow          *float64 `json:"noShow,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Remark          string   `json:"remark,omitempty"`
}

// PriceBreakdown decomposes the total. When the vendor does not supply
// explicit line items it is derived with fixed percentages and Estimated
// is set; consumers must treat those figures as approximate.
type PriceBreakdown struct {
	BaseFare   float64     `json:"baseFare"`
	Taxes      float64     `json:"taxes"`
	Fees       float64     `json:"fees"`
	Surcharges float64     `json:"surcharges,omitempty"`
	Discounts  float64     `json:"discounts,omitempty"`
	Items      []PriceItem `json:"items,omitempty"`
	Estimated  bool        `json:"estimated"`
}

type PriceItem struct {
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

// AdditionalServices flags are inferred from fare-family keywords and
// route/aircraft heuristics when the vendor gives nothing explicit.
type AdditionalServices struct {
	SeatSelection     bool     `json:"seatSelection"`
	SeatSelectionFee  *float64 `json:"seatSelectionFee,omitempty"`
	MealIncluded      bool     `json:"mealIncluded"`
	PriorityBoarding  bool     `json:"priorityBoarding"`
	WiFi              bool     `json:"wifi"`
	PowerOutlets      bool     `json:"powerOutlets"`
	Entertainment     bool     `json:"entertainment"`
	ServicesEstimated bool     `json:"servicesEstimated"`
}
