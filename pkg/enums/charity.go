package enums

// Charity identifies a supported donation recipient.
type Charity string

const (
	CharityFriendsOfEarth     Charity = "friends_of_earth"
	CharityIrishCancerSociety Charity = "irish_cancer_society"
	CharityBarnardos          Charity = "barnardos"
	CharityAnTaisce           Charity = "an_taisce"
	CharityCleanCoasts        Charity = "clean_coasts"
)

var charityNames = map[Charity]string{
	CharityFriendsOfEarth:     "Friends of the Earth Ireland",
	CharityIrishCancerSociety: "Irish Cancer Society",
	CharityBarnardos:          "Barnardos Ireland",
	CharityAnTaisce:           "An Taisce",
	CharityCleanCoasts:        "Clean Coasts",
}

// IsValid reports whether the charity is supported.
func (c Charity) IsValid() bool {
	_, ok := charityNames[c]
	return ok
}

// DisplayName returns the human name, or the raw id when unknown.
func (c Charity) DisplayName() string {
	if name, ok := charityNames[c]; ok {
		return name
	}
	if c == "" {
		return "a charity"
	}
	return string(c)
}
