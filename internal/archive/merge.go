package archive

import "focusflow/internal/model"

// Merge unions the tasks already shown with a remote fetch result by task id.
// Entries present in shown are never replaced by their remote copy.
func Merge(shown, remote []model.Task) []model.Task {
	merged := make([]model.Task, 0, len(shown)+len(remote))
	seen := make(map[string]struct{}, len(shown)+len(remote))

	for _, task := range shown {
		seen[task.ID] = struct{}{}
		merged = append(merged, task)
	}
	for _, task := range remote {
		if _, ok := seen[task.ID]; ok {
			continue
		}
		seen[task.ID] = struct{}{}
		merged = append(merged, task)
	}
	return merged
}
