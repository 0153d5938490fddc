package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"property-marketplace/models"
	"property-marketplace/utils"
)

const mostBookedLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate aggregates a listing snapshot and a booking snapshot.
func (s *InsightService) Generate(listings []*models.Listing, bookings []*models.Booking) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByLocation: make(map[string]int),
		MostBooked:         []models.PropertyBookings{},
	}

	report.TotalListings = len(listings)
	report.TotalBookings = len(bookings)

	var priced []*models.Listing
	for _, l := range listings {
		if l.Price > 0 {
			priced = append(priced, l)
		}
		if l.Location != "" {
			report.ListingsByLocation[l.Location]++
		}
	}

	// Price stats (only listings with price > 0)
	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		report.MostExpensive = priced[0]
		var total float64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				report.MostExpensive = l
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	report.MostBooked = mostBooked(bookings, mostBookedLimit)

	s.logger.Debug("[insights] %d listings, %d bookings, %d locations",
		report.TotalListings, report.TotalBookings, len(report.ListingsByLocation))
	return report
}

// mostBooked ranks properties by booking count, ties broken by property ID.
func mostBooked(bookings []*models.Booking, limit int) []models.PropertyBookings {
	index := make(map[string]int)
	counts := make([]models.PropertyBookings, 0)
	for _, b := range bookings {
		i, ok := index[b.PropertyID]
		if !ok {
			i = len(counts)
			index[b.PropertyID] = i
			counts = append(counts, models.PropertyBookings{PropertyID: b.PropertyID, PropertyName: b.PropertyName})
		}
		counts[i].Bookings++
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Bookings != counts[j].Bookings {
			return counts[i].Bookings > counts[j].Bookings
		}
		return counts[i].PropertyID < counts[j].PropertyID
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// Print renders r as a terminal report.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 MARKETPLACE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Total bookings : \033[1m%d\033[0m\n", r.TotalBookings)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Name, 50))
		fmt.Fprintf(w, "  Location : %s\n", r.MostExpensive.Location)
		fmt.Fprintf(w, "  Price    : \033[1;31m$%.2f\033[0m\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Most Booked Properties\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.MostBooked) == 0 {
		fmt.Fprintf(w, "  No bookings yet\n")
	} else {
		for i, pb := range r.MostBooked {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%d\033[0m\n",
				i+1, truncate(pb.PropertyName, 38), pb.Bookings)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Location\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByLocation) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.ListingsByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
