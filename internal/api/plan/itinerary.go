package plan

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/FACorreiaa/trexense-api/internal/types"
)

var rupiah = message.NewPrinter(language.Indonesian)

// FormatBudget renders an amount the way the itinerary model was trained on, e.g. "Rp. 1.500.000".
func FormatBudget(amount float64) string {
	return rupiah.Sprintf("Rp. %d", int64(math.Round(amount)))
}

// dayNumber parses keys of the form "day<N>".
func dayNumber(key string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(key)), "day")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// categoryNames returns the distinct non-empty category names in first-seen order of sorted day keys.
func categoryNames(days map[string][]types.ItineraryPlace) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, key := range sortedKeys(days) {
		for _, p := range days[key] {
			if p.Category == "" {
				continue
			}
			if _, ok := seen[p.Category]; ok {
				continue
			}
			seen[p.Category] = struct{}{}
			names = append(names, p.Category)
		}
	}
	return names
}

func sortedKeys(days map[string][]types.ItineraryPlace) []string {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, oki := dayNumber(keys[i])
		nj, okj := dayNumber(keys[j])
		if oki && okj && ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// stagedItinerary is what gets written for one generation run.
type stagedItinerary struct {
	Destinations []types.Destination
	Activities   []types.Activity
	// Dropped counts places whose day or category did not resolve.
	Dropped int
}

// stageItinerary pairs every resolvable place with a new Destination and an
// Activity on the matching day. Ids are assigned here so activities can point
// at their destination before anything is written.
func stageItinerary(days map[string][]types.ItineraryPlace, details []types.PlanDetail,
	categories map[string]uuid.UUID, createdAt time.Time) stagedItinerary {
	dayIDs := make(map[int]uuid.UUID, len(details))
	for _, d := range details {
		dayIDs[d.Day] = d.ID
	}

	var out stagedItinerary
	for _, key := range sortedKeys(days) {
		places := days[key]
		n, ok := dayNumber(key)
		dayID, inPlan := dayIDs[n]
		if !ok || !inPlan {
			out.Dropped += len(places)
			continue
		}
		for _, p := range places {
			categoryID, ok := categories[p.Category]
			if !ok {
				out.Dropped++
				continue
			}
			dest := types.Destination{
				ID:          uuid.New(),
				Name:        p.PlaceName,
				Description: p.Description,
				Address:     p.Address,
				Time:        p.Time,
				Cost:        string(p.Cost),
				CategoryID:  categoryID,
			}
			// Costs like "Free" or "Rp 50.000" stay on the destination only.
			cost, err := p.Cost.Float()
			if err != nil {
				cost = 0
			}
			destID := dest.ID
			out.Destinations = append(out.Destinations, dest)
			out.Activities = append(out.Activities, types.Activity{
				ID:            uuid.New(),
				PlanDetailID:  dayID,
				DestinationID: &destID,
				Name:          p.PlaceName,
				Description:   p.Description,
				Location:      p.Address,
				Cost:          cost,
				CreatedAt:     createdAt,
			})
		}
	}
	return out
}
