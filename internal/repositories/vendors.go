package repositories

import (
	"fmt"

	"rescueplate/internal/models"
)

// attachVendors resolves the vendor of every listing in one lookup.
func attachVendors(users UserRepository, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(listings))
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.VendorID]; ok {
			continue
		}
		seen[l.VendorID] = struct{}{}
		ids = append(ids, l.VendorID)
	}

	summaries, err := users.GetSummaries(ids)
	if err != nil {
		return fmt.Errorf("failed to resolve listing vendors: %w", err)
	}
	for i := range listings {
		if s, ok := summaries[listings[i].VendorID]; ok {
			vendor := s
			listings[i].Vendor = &vendor
		}
	}
	return nil
}
