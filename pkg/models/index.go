package models

// IndexRecord is one row of the index reference table (indexInfo.csv).
type IndexRecord struct {
	Region   string `json:"region"`
	Exchange string `json:"exchange"`
	Index    string `json:"index"` // unique symbol, e.g. "NYA"
	Currency string `json:"currency"`
}

// DateRange is the span of dates covered by the raw bars.
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// DataSummary describes the loaded datasets.
type DataSummary struct {
	TotalIndices     int       `json:"total_indices"`
	TotalRecords     int       `json:"total_records"` // raw + processed bars
	DateRange        DateRange `json:"date_range"`
	AvailableIndices []string  `json:"available_indices"`
}

// RawSample is a bounded view over all three datasets.
type RawSample struct {
	IndexInfo            []IndexRecord `json:"index_info"`
	IndexDataSample      []Bar         `json:"index_data_sample"`
	IndexProcessedSample []Bar         `json:"index_processed_sample"`
}
