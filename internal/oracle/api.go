package oracle

// distanceMatrixResponse models the subset of the Distance Matrix API response
// the client reads.
type distanceMatrixResponse struct {
	Status               string   `json:"status"`
	ErrorMessage         string   `json:"error_message"`
	OriginAddresses      []string `json:"origin_addresses"`
	DestinationAddresses []string `json:"destination_addresses"`
	Rows                 []struct {
		Elements []distanceMatrixElement `json:"elements"`
	} `json:"rows"`
}

type distanceMatrixElement struct {
	Status            string     `json:"status"`
	Distance          *valueText `json:"distance"`
	Duration          *valueText `json:"duration"`
	DurationInTraffic *valueText `json:"duration_in_traffic"`
}

// valueText carries meters for distances and seconds for durations.
type valueText struct {
	Value int64  `json:"value"`
	Text  string `json:"text"`
}
