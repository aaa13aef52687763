package estimator

// SubsystemEstimate is the outcome for one qubit subset.
type SubsystemEstimate struct {
	Positions     []int    `json:"positions"`
	TraceTotal    float64  `json:"trace_total"`
	PairCount     int      `json:"pair_count"`
	Purity        *float64 `json:"purity,omitempty"`
	Renyi2Entropy *float64 `json:"renyi_2_entropy,omitempty"`
}

// ConfigEstimates groups the estimates produced for one configuration.
type ConfigEstimates struct {
	DatasetFingerprint string              `json:"dataset_fingerprint"`
	NumRecords         int                 `json:"num_records"`
	Estimates          []SubsystemEstimate `json:"estimates"`
}

type configResult struct {
	ConfigName string
	Data       ConfigEstimates
	Err        error
}
