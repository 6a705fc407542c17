package api

// Response is the envelope returned by the myquran v2 schedule endpoint.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    Data   `json:"data"`
}

// Data carries the location echo and the day's schedule.
type Data struct {
	Lokasi string `json:"lokasi"`
	Daerah string `json:"daerah"`
	Jadwal Jadwal `json:"jadwal"`
}

// Jadwal holds one day. Besides the prayer keys (imsak, subuh, terbit,
// dhuha, dzuhur, ashar, maghrib, isya) it carries "tanggal" and "date",
// so it is decoded as a loose map and filtered by the caller.
type Jadwal map[string]any

// Timings returns the string-valued entries of j.
func (j Jadwal) Timings() map[string]string {
	out := make(map[string]string, len(j))
	for k, v := range j {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Date returns the ISO date echoed by the server, if any.
func (j Jadwal) Date() string {
	s, _ := j["date"].(string)
	return s
}
