package schema

// LedgerStatus represents the status of the ledger store.
type LedgerStatus struct {
	Backend    string           `json:"backend"`
	Connected  bool             `json:"connected"`
	Projects   int              `json:"projects"`
	TableSizes map[string]int64 `json:"table_sizes"`
}

// RejectedRecord identifies one record a batch refused to write.
type RejectedRecord struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// BatchReport accounts for every record submitted in one batch.
// Submitted == Written + Skipped + len(Rejected).
type BatchReport struct {
	Submitted int              `json:"submitted"`
	Written   int              `json:"written"`
	Skipped   int              `json:"skipped"` // already present or superseded within the batch
	Rejected  []RejectedRecord `json:"rejected,omitempty"`
}

// Merge folds another report into this one.
func (r *BatchReport) Merge(other BatchReport) {
	r.Submitted += other.Submitted
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.Rejected = append(r.Rejected, other.Rejected...)
}

// Reject records a refused record.
func (r *BatchReport) Reject(key string, err error) {
	r.Rejected = append(r.Rejected, RejectedRecord{Key: key, Reason: err.Error(), Err: err})
}
