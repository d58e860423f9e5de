package config

// Option is a single dropdown entry together with its training-time encoding.
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Group string `json:"group,omitempty"`
	Value int    `json:"value"`
}

// BuildingConditions is ordered from worst to best, matching the ordinal encoding.
var BuildingConditions = []Option{
	{Code: "TO_RESTORE", Label: "To Restore", Value: 0},
	{Code: "TO_RENOVATE", Label: "To Renovate", Value: 1},
	{Code: "TO_REFRESH", Label: "To Refresh", Value: 2},
	{Code: "GOOD", Label: "Good", Value: 3},
	{Code: "JUST_RENOVATED", Label: "Just Renovated", Value: 4},
	{Code: "AS_NEW", Label: "As New", Value: 5},
}

// Subtype groups and their encodings.
const (
	GroupApartment        = "apartment"
	GroupMixedUseBuilding = "mixed use building"
	GroupHouse            = "house"
	GroupOther            = "other"
	GroupLuxury           = "luxury"
)

var subtypeGroupValues = map[string]int{
	GroupApartment:        0,
	GroupMixedUseBuilding: 1,
	GroupHouse:            2,
	GroupOther:            3,
	GroupLuxury:           4,
}

// PropertySubtypes lists every subtype offered by the form. The value of a
// subtype is the encoding of its group.
var PropertySubtypes = []Option{
	subtype("KOT", "Kot", GroupApartment),
	subtype("APARTMENT", "Apartment", GroupApartment),
	subtype("GROUND_FLOOR", "Ground Floor", GroupApartment),
	subtype("FLAT_STUDIO", "Flat Studio", GroupApartment),
	subtype("SERVICE_FLAT", "Service Flat", GroupApartment),
	subtype("FARMHOUSE", "Farmhouse", GroupMixedUseBuilding),
	subtype("MIXED_USE_BUILDING", "Mixed Use Building", GroupMixedUseBuilding),
	subtype("TRIPLEX", "Triplex", GroupHouse),
	subtype("DUPLEX", "Duplex", GroupHouse),
	subtype("HOUSE", "House", GroupHouse),
	subtype("TOWN_HOUSE", "Town House", GroupHouse),
	subtype("BUNGALOW", "Bungalow", GroupHouse),
	subtype("CHALET", "Chalet", GroupHouse),
	subtype("COUNTRY_COTTAGE", "Country Cottage", GroupHouse),
	subtype("APARTMENT_BLOCK", "Apartment Block", GroupOther),
	subtype("OTHER_PROPERTY", "Other Property", GroupOther),
	subtype("LOFT", "Loft", GroupLuxury),
	subtype("MANSION", "Mansion", GroupLuxury),
	subtype("PENTHOUSE", "Penthouse", GroupLuxury),
	subtype("VILLA", "Villa", GroupLuxury),
	subtype("MANOR_HOUSE", "Manor House", GroupLuxury),
	subtype("CASTLE", "Castle", GroupLuxury),
	subtype("EXCEPTIONAL_PROPERTY", "Exceptional Property", GroupLuxury),
}

func subtype(code, label, group string) Option {
	return Option{Code: code, Label: label, Group: group, Value: subtypeGroupValues[group]}
}

// FindOption returns the option whose code or label equals value exactly.
func FindOption(options []Option, value string) (Option, bool) {
	for _, o := range options {
		if o.Code == value || o.Label == value {
			return o, true
		}
	}
	return Option{}, false
}

// Codes returns the codes of the given options in table order.
func Codes(options []Option) []string {
	codes := make([]string, len(options))
	for i, o := range options {
		codes[i] = o.Code
	}
	return codes
}
