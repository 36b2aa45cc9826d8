package models

// HourKey identifies one UTC hour of one UTC day.
type HourKey struct {
	Date string `json:"date" bson:"date"`
	Hour int    `json:"hour" bson:"hour"`
}

// HourlyBucket counts records created within one hour.
type HourlyBucket struct {
	Key   HourKey `json:"_id" bson:"_id"`
	Count int     `json:"count" bson:"count"`
}

// Stats summarises the record collection for the dashboard.
type Stats struct {
	TotalRecords int64          `json:"totalRecords"`
	TodayCount   int64          `json:"todayCount"`
	UniqueIPs    int            `json:"uniqueIPs"`
	HourlyData   []HourlyBucket `json:"hourlyData"`
}
