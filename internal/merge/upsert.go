package merge

import (
	"enrollments-backend/internal/enrollment"
)

// Upserted is the outcome of reconciling a batch into an archive.
type Upserted struct {
	Rows     []enrollment.Section
	Inserted int
	Updated  int
	// Collapsed holds the keys that appeared more than once in the
	// archive and were reduced to their last occurrence.
	Collapsed []enrollment.Key
}

// collapse keeps the last occurrence of every key, at the position of
// that occurrence.
func collapse(rows []enrollment.Section) ([]enrollment.Section, enrollment.Index, []enrollment.Key) {
	index, duplicates := enrollment.NewIndex(rows)
	if len(duplicates) == 0 {
		return rows, index, nil
	}

	collapsed := make([]enrollment.Key, len(duplicates))
	for i, pos := range duplicates {
		collapsed[i] = enrollment.KeyOf(rows[pos])
	}

	out := make([]enrollment.Section, 0, len(index))
	for i, row := range rows {
		if index[enrollment.KeyOf(row)] == i {
			out = append(out, row)
		}
	}
	index, _ = enrollment.NewIndex(out)
	return out, index, collapsed
}

// Upsert replaces every archive row whose key appears in batch with the
// batch row, in place, and appends the batch rows with new keys in the
// order they first appear. When a key repeats within batch the last row
// wins. Neither input is modified.
func Upsert(archive, batch []enrollment.Section) Upserted {
	rows, index, collapsed := collapse(archive)
	rows = append([]enrollment.Section(nil), rows...)

	latest, _ := enrollment.NewIndex(batch)
	result := Upserted{Collapsed: collapsed}

	done := make(map[enrollment.Key]bool, len(latest))
	for _, row := range batch {
		key := enrollment.KeyOf(row)
		if done[key] {
			continue
		}
		done[key] = true
		row = batch[latest[key]]

		if pos, ok := index[key]; ok {
			rows[pos] = row
			result.Updated++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
		result.Inserted++
	}

	result.Rows = rows
	return result
}
