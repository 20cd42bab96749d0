package cron

import (
	"context"
	"fmt"
)

// Job is one unit of scheduled work, for example warming a home snapshot.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in run order. Names are unique.
type Registry struct {
	jobs  []Job
	index map[string]struct{}
}

// NewRegistry registers jobs in order and fails on a nil job or a repeated name.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{index: make(map[string]struct{}, len(jobs))}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends job to the run order.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron job is nil")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron job name is empty")
	}
	if r.index == nil {
		r.index = map[string]struct{}{}
	}
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.index[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the run order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Names lists job names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
