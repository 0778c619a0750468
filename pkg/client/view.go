package client

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"rescueplate/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func badge(l models.Listing) string {
	if percent, ok := Discount(l.Price, l.OriginalPrice); ok {
		return fmt.Sprintf("-%d%%", percent)
	}
	return ""
}

func price(l models.Listing) string {
	if l.OriginalPrice != nil && *l.OriginalPrice > l.Price {
		return fmt.Sprintf("$%.2f (was $%.2f)", l.Price, *l.OriginalPrice)
	}
	return fmt.Sprintf("$%.2f", l.Price)
}

func vendorName(l models.Listing) string {
	if l.Vendor == nil || l.Vendor.Name == "" {
		return "-"
	}
	return l.Vendor.Name
}

// RenderListings writes the public browse view.
func RenderListings(w io.Writer, listings []models.Listing) error {
	if len(listings) == 0 {
		_, err := fmt.Fprintln(w, "No listings available right now. Check back soon!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tDEAL\tQUANTITY\tPICKUP\tVENDOR")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Title, l.Category, price(l), badge(l), l.Quantity, l.PickupTime, vendorName(l))
	}
	return tw.Flush()
}

// RenderDashboard writes the vendor's own listings.
func RenderDashboard(w io.Writer, vendor *models.User, listings []models.Listing) error {
	name := "your"
	if vendor != nil && vendor.Name != "" {
		name = vendor.Name + "'s"
	}
	if _, err := fmt.Fprintf(w, "Dashboard: %s listings (%d)\n", name, len(listings)); err != nil {
		return err
	}
	if len(listings) == 0 {
		_, err := fmt.Fprintln(w, "You have no listings yet. Create one to rescue some food.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tDEAL\tQUANTITY\tPICKUP\tPOSTED")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Title, l.Category, price(l), badge(l), l.Quantity, l.PickupTime, l.CreatedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

// RenderListing writes the detail view of one listing.
func RenderListing(w io.Writer, l models.Listing) error {
	var b strings.Builder
	title := l.Title
	if d := badge(l); d != "" {
		title += "  [" + d + "]"
	}
	fmt.Fprintln(&b, title)
	fmt.Fprintln(&b, strings.Repeat("-", len(l.Title)))
	fmt.Fprintln(&b, l.Description)
	fmt.Fprintf(&b, "Price:    %s\n", price(l))
	fmt.Fprintf(&b, "Category: %s\n", l.Category)
	fmt.Fprintf(&b, "Quantity: %s\n", l.Quantity)
	fmt.Fprintf(&b, "Pickup:   %s\n", l.PickupTime)
	if l.Vendor != nil {
		fmt.Fprintf(&b, "Vendor:   %s <%s>\n", l.Vendor.Name, l.Vendor.Email)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
