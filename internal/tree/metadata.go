package tree

import (
	"os"
	"time"
)

// Metadata records when and where a node was last modified.
// Values are replaced wholesale, never edited in place.
type Metadata struct {
	MTime  float64 // seconds since the Unix epoch
	TZName string
	Host   string
}

// Time returns MTime as a time.Time in the local zone.
func (m Metadata) Time() time.Time {
	sec := int64(m.MTime)
	nsec := int64((m.MTime - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Stamper produces the metadata applied to nodes touched by a mutation.
type Stamper func() Metadata

// Now is the default Stamper: current time, local zone abbreviation, hostname.
func Now() Metadata {
	now := time.Now()
	zone, _ := now.Zone()
	host, err := os.Hostname()
	if err != nil {
		host = "(unknown)"
	}
	return Metadata{
		MTime:  float64(now.UnixNano()) / 1e9,
		TZName: zone,
		Host:   host,
	}
}
