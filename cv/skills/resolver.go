// Package skills joins a CV's skill ratings with the skill catalog.
package skills

import "cvio-backend/cv/model"

// Report lists the ratings that could not be resolved cleanly.
type Report struct {
	// Stale holds skill ids absent from the catalog. Those entries are dropped.
	Stale []string
	// Malformed holds skill ids whose stored rating was out of range. Those
	// entries are kept with model.RatingUnknown.
	Malformed []string
}

// Resolve returns the resolved skills for ratings, in rating order.
// Ratings whose skill id is not in catalog are dropped.
func Resolve(ratings model.SkillRatings, catalog []model.SkillCatalogEntry) []model.ResolvedSkill {
	resolved, _ := ResolveWithReport(ratings, catalog)
	return resolved
}

// ResolveWithReport is Resolve plus a report of dropped and malformed entries.
func ResolveWithReport(ratings model.SkillRatings, catalog []model.SkillCatalogEntry) ([]model.ResolvedSkill, Report) {
	var report Report
	out := make([]model.ResolvedSkill, 0, len(ratings))
	if len(ratings) == 0 {
		return out, report
	}

	index := indexCatalog(catalog)
	for _, rating := range ratings {
		entry, ok := index[rating.SkillID]
		if !ok {
			report.Stale = append(report.Stale, rating.SkillID)
			continue
		}
		level := rating.Rating
		if rating.Malformed || !level.Valid() {
			report.Malformed = append(report.Malformed, rating.SkillID)
			level = model.RatingUnknown
		}
		out = append(out, model.ResolvedSkill{
			SkillID:  entry.ID,
			Name:     entry.Name,
			Category: entry.Category,
			Rating:   level,
		})
	}
	return out, report
}

// indexCatalog maps skill id to entry. The first entry wins if ids repeat.
func indexCatalog(catalog []model.SkillCatalogEntry) map[string]model.SkillCatalogEntry {
	index := make(map[string]model.SkillCatalogEntry, len(catalog))
	for _, entry := range catalog {
		if entry.ID == "" {
			continue
		}
		if _, seen := index[entry.ID]; seen {
			continue
		}
		index[entry.ID] = entry
	}
	return index
}
