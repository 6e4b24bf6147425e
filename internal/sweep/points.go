package sweep

import (
	"strconv"
	"time"

	"github.com/netsweep/netsweep/internal/lineproto"
)

// BuildPoints converts a run summary into measurement points: one summary
// point for the run plus one port point per identified host port. Every
// point in the batch shares a single timestamp.
func BuildPoints(measurement string, summary *Summary, now time.Time) []lineproto.Point {
	points := make([]lineproto.Point, 0, 1+summary.TotalPorts())

	points = append(points, lineproto.Point{
		Measurement: measurement + "_summary",
		Tags: []lineproto.Tag{
			{Key: "scan_id", Value: summary.ScanID},
			{Key: "network_name", Value: summary.NetworkName},
			{Key: "network_cidr", Value: summary.NetworkCIDR},
		},
		Fields: []lineproto.Field{
			{Key: "hosts_discovered", Value: summary.Statistics.Phase1.HostsWithOpenPorts},
			{Key: "ports_found", Value: summary.Statistics.Phase1.TotalOpenPorts},
			{Key: "services_identified", Value: summary.Statistics.Phase2.UniqueServices},
			{Key: "duration_seconds", Value: summary.DurationSeconds},
		},
		Timestamp: now,
	})

	for _, detail := range summary.Results.Phase2Detailed {
		for _, record := range detail.Ports {
			fields := []lineproto.Field{
				{Key: "state", Value: record.State},
			}
			if record.Product != "" {
				fields = append(fields, lineproto.Field{Key: "product", Value: record.Product})
			}
			if record.Version != "" {
				fields = append(fields, lineproto.Field{Key: "version", Value: record.Version})
			}

			points = append(points, lineproto.Point{
				Measurement: measurement + "_ports",
				Tags: []lineproto.Tag{
					{Key: "scan_id", Value: summary.ScanID},
					{Key: "ip", Value: detail.IP},
					{Key: "port", Value: strconv.Itoa(record.Port)},
					{Key: "protocol", Value: record.Protocol},
					{Key: "service", Value: record.Name},
				},
				Fields:    fields,
				Timestamp: now,
			})
		}
	}
	return points
}
