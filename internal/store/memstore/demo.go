package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

type demoCity struct {
	name   string
	region model.Region
}

var demoCities = []demoCity{
	{"Paris", model.RegionIleDeFrance},
	{"Lyon", model.RegionAuvergneRhoneAlpes},
	{"Bordeaux", model.RegionNouvelleAquitaine},
	{"Aix-en-Provence", model.RegionPACA},
	{"Rennes", model.RegionBretagne},
	{"Annecy", model.RegionAuvergneRhoneAlpes},
	{"Toulouse", model.RegionOccitanie},
	{"Dijon", model.RegionBourgogneFrancheComte},
}

var demoVenueTypes = []string{
	model.VenueChateau, model.VenueDomaine, model.VenueManoir, model.VenueSalle, model.VenueFerme,
}

// SeedDemo fills s with a deterministic demo catalogue: three vendors per
// public category, one hidden vendor and one Coordination vendor, each with
// a couple of photos. It returns the number of vendors written.
func SeedDemo(ctx context.Context, s *Store, photoBaseURL string) (int, error) {
	created := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	n := 0
	add := func(v *model.Vendor, photos int) error {
		v.CreatedAt = created.Add(time.Duration(n) * time.Hour)
		v.UpdatedAt = v.CreatedAt
		if err := s.CreateVendor(ctx, v); err != nil {
			return err
		}
		for i := 0; i < photos; i++ {
			p := &model.Photo{
				ID:         fmt.Sprintf("ph-demo-%03d-%d", n, i),
				VendorID:   v.ID,
				URL:        fmt.Sprintf("%s/vendors/%s/%d.jpg", photoBaseURL, v.ID, i),
				Order:      i,
				Principale: i == photos-1, // principale is not the lowest order on purpose
				IsCover:    i == 0,
				CreatedAt:  v.CreatedAt,
			}
			if err := s.AddPhoto(ctx, p); err != nil {
				return err
			}
		}
		n++
		return nil
	}

	for ci, cat := range model.PublicCategories() {
		for k := 0; k < 3; k++ {
			city := demoCities[(ci+k)%len(demoCities)]
			v := &model.Vendor{
				ID:          fmt.Sprintf("pr-demo-%02d%d", ci, k),
				Name:        fmt.Sprintf("%s %s %d", cat, city.name, k+1),
				Description: fmt.Sprintf("%s à %s, disponible toute l'année.", cat, city.name),
				City:        city.name,
				Region:      city.region,
				Category:    cat,
				Visible:     true,
				Featured:    k == 0 && ci%4 == 0,
				Partner:     k == 1,
			}
			base := float64(500 + 250*ci + 400*k)
			switch k {
			case 0:
				v.StartingPrice = model.Ptr(base)
			case 1:
				v.PricePerGuest = model.Ptr(base / 20)
			default:
				v.StartingPrice = model.Ptr(base)
				v.PricePerGuest = model.Ptr(base / 25)
			}
			if cat == model.CategoryVenue {
				v.VenueType = demoVenueTypes[k%len(demoVenueTypes)]
				v.Capacity = model.Ptr(80 + 70*k)
				v.Lodging = model.Ptr(k != 1)
				if k != 1 {
					v.Beds = model.Ptr(12 + 10*k)
				}
			}
			if err := add(v, 2); err != nil {
				return n, err
			}
		}
	}

	hidden := &model.Vendor{
		ID: "pr-demo-hidden", Name: "Brouillon", Category: model.CategoryCaterer,
		City: "Paris", Region: model.RegionIleDeFrance,
	}
	if err := add(hidden, 1); err != nil {
		return n, err
	}
	coord := &model.Vendor{
		ID: "pr-demo-coord", Name: "Équipe coordination", Category: model.CategoryCoordination,
		Visible: true,
	}
	if err := add(coord, 0); err != nil {
		return n, err
	}
	return n, nil
}
