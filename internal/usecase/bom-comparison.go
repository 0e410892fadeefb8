package usecase

import "object-detection-service/internal/domain"

// CompareBOM matches the per-class summary against the required parts. Class
// names are compared with part names exactly. Shortages follow BOM order;
// surpluses list BOM parts first, then unexpected classes in summary order.
func CompareBOM(entries []*domain.BOMEntry, summary []domain.ClassSummary) ([]domain.ShortageItem, []domain.SurplusItem) {
	detected := make(map[string]int, len(summary))
	for _, s := range summary {
		detected[s.ClassName] += s.Quantity
	}

	shortage := make([]domain.ShortageItem, 0)
	surplus := make([]domain.SurplusItem, 0)

	required := make(map[string]bool, len(entries))
	for _, e := range entries {
		if required[e.PartName] {
			continue
		}
		required[e.PartName] = true

		got := detected[e.PartName]
		switch {
		case got < e.Quantity:
			shortage = append(shortage, domain.ShortageItem{
				PartName: e.PartName,
				Required: e.Quantity,
				Detected: got,
				Shortage: e.Quantity - got,
			})
		case got > e.Quantity:
			surplus = append(surplus, domain.SurplusItem{
				PartName: e.PartName,
				Detected: got,
				Required: e.Quantity,
				Surplus:  got - e.Quantity,
			})
		}
	}

	for _, s := range summary {
		if required[s.ClassName] {
			continue
		}
		required[s.ClassName] = true
		surplus = append(surplus, domain.SurplusItem{
			PartName: s.ClassName,
			Detected: detected[s.ClassName],
			Surplus:  detected[s.ClassName],
		})
	}

	return shortage, surplus
}
