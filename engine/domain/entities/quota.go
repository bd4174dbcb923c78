package entities

// QuotaCounter tracks posts submitted by a user within one UTC calendar day.
// Day is the "YYYY-MM-DD" bucket; a write with a newer day replaces the
// stored bucket, so counters roll over without a reset job.
type QuotaCounter struct {
	UserID string
	Day    string
	Count  int
}
