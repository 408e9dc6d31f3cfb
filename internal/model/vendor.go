package model

import "time"

// Category is the business category of a vendor ("prestataire").
type Category string

const (
	CategoryVenue        Category = "Lieu de réception"
	CategoryCaterer      Category = "Traiteur"
	CategoryPhotographer Category = "Photographe"
	CategoryVideographer Category = "Vidéaste"
	CategoryMusic        Category = "DJ / Musicien"
	CategoryFlorist      Category = "Fleuriste"
	CategoryPlanner      Category = "Wedding planner"
	CategoryDecorator    Category = "Décorateur"
	CategoryBridalWear   Category = "Robe de mariée"
	CategorySuit         Category = "Costume"
	CategoryHairMakeup   Category = "Coiffure & Maquillage"
	CategoryStationery   Category = "Faire-part"
	CategoryPastry       Category = "Pâtissier"
	CategoryCarRental    Category = "Location de voiture"
	CategoryOfficiant    Category = "Officiant"

	// CategoryCoordination is an internal category. Vendors in it never
	// appear in public listings.
	CategoryCoordination Category = "Coordination"

	// CategoryAll is the "no category" sentinel accepted by listing filters.
	CategoryAll Category = "all"
)

var categories = []Category{
	CategoryVenue,
	CategoryCaterer,
	CategoryPhotographer,
	CategoryVideographer,
	CategoryMusic,
	CategoryFlorist,
	CategoryPlanner,
	CategoryDecorator,
	CategoryBridalWear,
	CategorySuit,
	CategoryHairMakeup,
	CategoryStationery,
	CategoryPastry,
	CategoryCarRental,
	CategoryOfficiant,
	CategoryCoordination,
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is a known category. The "all" sentinel is not
// a category.
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// PublicCategories returns the categories a visitor can browse, in display order.
func PublicCategories() []Category {
	out := make([]Category, 0, len(categories)-1)
	for _, c := range categories {
		if c != CategoryCoordination {
			out = append(out, c)
		}
	}
	return out
}

// Region is a metropolitan French region.
type Region string

const (
	RegionAuvergneRhoneAlpes    Region = "Auvergne-Rhône-Alpes"
	RegionBourgogneFrancheComte Region = "Bourgogne-Franche-Comté"
	RegionBretagne              Region = "Bretagne"
	RegionCentreValDeLoire      Region = "Centre-Val de Loire"
	RegionCorse                 Region = "Corse"
	RegionGrandEst              Region = "Grand Est"
	RegionHautsDeFrance         Region = "Hauts-de-France"
	RegionIleDeFrance           Region = "Île-de-France"
	RegionNormandie             Region = "Normandie"
	RegionNouvelleAquitaine     Region = "Nouvelle-Aquitaine"
	RegionOccitanie             Region = "Occitanie"
	RegionPaysDeLaLoire         Region = "Pays de la Loire"
	RegionPACA                  Region = "Provence-Alpes-Côte d'Azur"
)

var regions = []Region{
	RegionAuvergneRhoneAlpes,
	RegionBourgogneFrancheComte,
	RegionBretagne,
	RegionCentreValDeLoire,
	RegionCorse,
	RegionGrandEst,
	RegionHautsDeFrance,
	RegionIleDeFrance,
	RegionNormandie,
	RegionNouvelleAquitaine,
	RegionOccitanie,
	RegionPaysDeLaLoire,
	RegionPACA,
}

// String returns the string representation of the region.
func (r Region) String() string {
	return string(r)
}

// IsValid reports whether r is a known region.
func (r Region) IsValid() bool {
	for _, known := range regions {
		if r == known {
			return true
		}
	}
	return false
}

// Regions returns all known regions in display order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Well-known venue types. Venue types are extensible; any non-empty value is
// accepted.
const (
	VenueChateau    = "Château"
	VenueDomaine    = "Domaine"
	VenueManoir     = "Manoir"
	VenueSalle      = "Salle de réception"
	VenueFerme      = "Ferme"
	VenueHotel      = "Hôtel"
	VenueRestaurant = "Restaurant"
	VenuePeniche    = "Péniche"
)

// Vendor is a wedding service provider listed in the directory.
//
// Venue attributes (VenueType, Capacity, Lodging, Beds) are only meaningful
// for CategoryVenue. Both price fields are optional; a vendor may quote a
// starting price, a per-guest price, both, or neither.
type Vendor struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	City          string   `json:"city,omitempty"`
	Region        Region   `json:"region,omitempty"`
	Category      Category `json:"category"`
	StartingPrice *float64 `json:"starting_price,omitempty"`
	PricePerGuest *float64 `json:"price_per_guest,omitempty"`
	VenueType     string   `json:"venue_type,omitempty"`
	Capacity      *int     `json:"capacity,omitempty"`
	Lodging       *bool    `json:"lodging,omitempty"`
	Beds          *int     `json:"beds,omitempty"`
	Visible       bool     `json:"visible"`
	Featured      bool     `json:"featured"`
	Partner       bool     `json:"partner"`
	Website       string   `json:"website,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated only by detail and export reads, never by listings.
	Photos []*Photo `json:"photos,omitempty"`
}

// IsVenue reports whether the vendor is a reception venue.
func (v *Vendor) IsVenue() bool {
	return v.Category == CategoryVenue
}

// Photo is an image attached to a vendor. At most one photo per vendor is
// expected to be principale; Order breaks ties otherwise.
type Photo struct {
	ID         string    `json:"id"`
	VendorID   string    `json:"vendor_id"`
	URL        string    `json:"url"`
	Order      int       `json:"order"`
	Principale bool      `json:"principale"`
	IsCover    bool      `json:"is_cover"`
	CreatedAt  time.Time `json:"created_at"`
}
