// Package maintenance runs periodic housekeeping for the storefront datastore under a
// cluster-wide Redis lock.
package maintenance

import "context"

// Job is one housekeeping task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Jobs is an ordered job list; nil entries are skipped.
type Jobs []Job

func (j Jobs) active() []Job {
	out := make([]Job, 0, len(j))
	for _, job := range j {
		if job != nil {
			out = append(out, job)
		}
	}
	return out
}
