package repository

// Job names one of the scoring pipelines.
type Job string

const (
	JobBond     Job = "bond"
	JobDividend Job = "dividend"
	JobLOF      Job = "lof"
)

// IsValidJob returns true if j is a known pipeline.
func IsValidJob(j Job) bool {
	switch j {
	case JobBond, JobDividend, JobLOF:
		return true
	default:
		return false
	}
}

// DefaultJob returns the default pipeline.
func DefaultJob() Job { return JobBond }

// NormalizeJob converts raw string to a valid job (or default).
func NormalizeJob(s string) Job {
	if s == "" {
		return DefaultJob()
	}
	j := Job(s)
	if IsValidJob(j) {
		return j
	}
	return DefaultJob()
}
