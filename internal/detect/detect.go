package detect

import (
	"fmt"

	"plansbot/internal/domain"
)

// TooManyNewError aborts a run whose delta exceeds the configured ceiling.
// A sudden flood of "new" documents almost always means the listing page's
// markup changed and every item looks unseen; announcing them all would be
// the worst possible response to a parsing regression.
type TooManyNewError struct {
	Found   int
	Ceiling int
}

func (e *TooManyNewError) Error() string {
	return fmt.Sprintf("detect: %d new items exceeds ceiling of %d", e.Found, e.Ceiling)
}

// Delta returns the observed items not yet announced, preserving observed
// order. Duplicate locators within observed are collapsed to their first
// occurrence. If the result would exceed ceiling, Delta returns a
// *TooManyNewError and no items; the caller must not publish or mutate the
// announced set for this run.
func Delta(announced domain.AnnouncedSet, observed []domain.Item, ceiling int) ([]domain.Item, error) {
	delta := make([]domain.Item, 0)
	seen := map[string]struct{}{}

	for _, item := range observed {
		if _, ok := seen[item.Locator]; ok {
			continue
		}
		seen[item.Locator] = struct{}{}

		if announced.Has(item.Locator) {
			continue
		}
		delta = append(delta, item)
	}

	if len(delta) > ceiling {
		return nil, &TooManyNewError{Found: len(delta), Ceiling: ceiling}
	}

	return delta, nil
}
