package usecase

import "object-detection-service/internal/domain"

// Summarize groups detections by class name in first-seen order. Each
// confidence is rounded to 4 decimals before averaging and the mean is
// rounded again.
func Summarize(detections domain.DetectionSet) []domain.ClassSummary {
	type accumulator struct {
		count int
		total float64
	}

	order := make([]string, 0)
	groups := make(map[string]*accumulator)
	for _, d := range detections {
		acc, ok := groups[d.ClassName]
		if !ok {
			acc = &accumulator{}
			groups[d.ClassName] = acc
			order = append(order, d.ClassName)
		}
		acc.count++
		acc.total += domain.RoundConfidence(d.Confidence)
	}

	summary := make([]domain.ClassSummary, 0, len(order))
	for _, name := range order {
		acc := groups[name]
		summary = append(summary, domain.ClassSummary{
			ClassName:         name,
			Quantity:          acc.count,
			AverageConfidence: domain.RoundConfidence(acc.total / float64(acc.count)),
		})
	}
	return summary
}
