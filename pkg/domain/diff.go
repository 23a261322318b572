package domain

// CollectionDiff represents the changes between two collections.
// It is serialized to JSON for partial updates on the client.
type CollectionDiff struct {
	DocumentID string `json:"document_id"`

	// Added and Changed carry full records, Removed only ids.
	Added   []Element `json:"added,omitempty"`
	Removed []int     `json:"removed,omitempty"`
	Changed []Element `json:"changed,omitempty"`

	// Order is the full id order, present only when the relative order of
	// surviving elements changed or elements were added.
	Order []int `json:"order,omitempty"`
}

// DiffCollections calculates the difference between two collections.
// Returns nil when nothing changed.
func DiffCollections(documentID string, oldEls, newEls []Element) *CollectionDiff {
	diff := &CollectionDiff{DocumentID: documentID}

	before := make(map[int]Element, len(oldEls))
	for _, el := range oldEls {
		before[el.ID] = el
	}
	after := make(map[int]bool, len(newEls))

	var survivorsNew []int
	for _, el := range newEls {
		after[el.ID] = true
		prev, ok := before[el.ID]
		if !ok {
			diff.Added = append(diff.Added, el)
			continue
		}
		survivorsNew = append(survivorsNew, el.ID)
		if prev != el {
			diff.Changed = append(diff.Changed, el)
		}
	}

	var survivorsOld []int
	for _, el := range oldEls {
		if !after[el.ID] {
			diff.Removed = append(diff.Removed, el.ID)
			continue
		}
		survivorsOld = append(survivorsOld, el.ID)
	}

	if len(diff.Added) > 0 || !equalInts(survivorsOld, survivorsNew) {
		diff.Order = make([]int, len(newEls))
		for i, el := range newEls {
			diff.Order[i] = el.ID
		}
	}

	if len(diff.Added) == 0 && len(diff.Removed) == 0 && len(diff.Changed) == 0 && diff.Order == nil {
		return nil
	}
	return diff
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
