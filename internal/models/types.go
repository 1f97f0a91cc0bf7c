package models

import "time"

// PassSummary is the outcome of one evaluation pass
type PassSummary struct {
	ID         string        `json:"id" yaml:"id"`
	Trigger    string        `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Day        string        `json:"day" yaml:"day"`
	Hour       int           `json:"hour" yaml:"hour"`
	TimeMode   string        `json:"time_mode" yaml:"time_mode"`
	DryRun     bool          `json:"dry_run" yaml:"dry_run"`
	Kinds      []KindSummary `json:"kinds" yaml:"kinds"`
}

// KindSummary covers one resource kind within a pass
type KindSummary struct {
	Kind           string   `json:"kind" yaml:"kind"`
	Evaluated      int      `json:"evaluated" yaml:"evaluated"`
	Started        []string `json:"started" yaml:"started"`
	Stopped        []string `json:"stopped" yaml:"stopped"`
	DecodeFailures []string `json:"decode_failures,omitempty" yaml:"decode_failures,omitempty"`
	Provisioned    []string `json:"provisioned,omitempty" yaml:"provisioned,omitempty"`
	Failed         []string `json:"failed,omitempty" yaml:"failed,omitempty"`
	Error          string   `json:"error,omitempty" yaml:"error,omitempty"`
	Skipped        bool     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Started returns every started identifier across kinds
func (p *PassSummary) Started() []string {
	var ids []string
	for _, k := range p.Kinds {
		ids = append(ids, k.Started...)
	}
	return ids
}

// Stopped returns every stopped identifier across kinds
func (p *PassSummary) Stopped() []string {
	var ids []string
	for _, k := range p.Kinds {
		ids = append(ids, k.Stopped...)
	}
	return ids
}
