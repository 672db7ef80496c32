package service

import "golang-market-stress/internal/executor/dto"

// Dedupe returns the candidates whose title is not in known, in source order.
// Matching is exact on the raw title. A title repeated inside candidates is kept
// once, at its first position. known is never modified.
func Dedupe(candidates []dto.NewsItem, known map[string]struct{}) []dto.NewsItem {
	fresh := make([]dto.NewsItem, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, item := range candidates {
		if _, ok := known[item.Title]; ok {
			continue
		}
		if _, ok := seen[item.Title]; ok {
			continue
		}
		seen[item.Title] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh
}
