package service

// DayVolume is one day of ticket throughput.
type DayVolume struct {
	Name     string `json:"name"`
	New      int    `json:"new"`
	Resolved int    `json:"resolved"`
}

// SatisfactionBucket is one slice of the satisfaction breakdown.
type SatisfactionBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Analytics is the dashboard's overview data.
type Analytics struct {
	TicketData       []DayVolume          `json:"ticketData"`
	SatisfactionData []SatisfactionBucket `json:"satisfactionData"`
}

// Analytics returns the static overview shown on the dashboard.
func (s *Service) Analytics() Analytics {
	return Analytics{
		TicketData: []DayVolume{
			{"Mon", 30, 22}, {"Tue", 45, 35}, {"Wed", 28, 40}, {"Thu", 52, 48},
			{"Fri", 60, 55}, {"Sat", 38, 30}, {"Sun", 25, 20},
		},
		SatisfactionData: []SatisfactionBucket{
			{"Excellent", 400}, {"Good", 300}, {"Neutral", 150}, {"Poor", 50},
		},
	}
}
