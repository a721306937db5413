package evernote

import "time"

// TimeFromMillis converts an Evernote epoch-milliseconds timestamp.
func TimeFromMillis(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// LocalTime interprets an epoch-milliseconds timestamp in the named IANA
// zone, falling back to UTC when the zone is unknown or empty.
func LocalTime(ms int64, zone string) time.Time {
	t := TimeFromMillis(ms)
	if zone == "" {
		return t
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return t
	}
	return t.In(loc)
}
