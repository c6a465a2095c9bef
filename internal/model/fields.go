package model

// Column names produced or consumed by the pipeline.
const (
	TimestampUTC     = "_ts_utc"
	TimestampDisplay = "_ts_ct"

	FlowStart = "flow.start"
	FlowEnd   = "flow.end"
	Duration  = "duration_s"

	BytesToServer = "flow.bytes_toserver"
	BytesToClient = "flow.bytes_toclient"
	PktsToServer  = "flow.pkts_toserver"
	PktsToClient  = "flow.pkts_toclient"
	BppServer     = "bpp_srv"
	BppClient     = "bpp_cli"

	SrcIP         = "src_ip"
	SrcPort       = "src_port"
	DestPort      = "dest_port"
	DestPortAlias = "DestPort (dest_port)"

	EventType     = "event_type"
	AlertCategory = "alert.category"
	AlertSeverity = "alert.severity"
	ASOrg         = "geoip.as_org"

	Events = "events"
)

// EventTypeAlert is the event_type value carried by rule matches.
const EventTypeAlert = "alert"

// TimestampCandidates are the header names recognized as the event timestamp,
// compared case-insensitively.
var TimestampCandidates = []string{"@timestamp", "timestamp", "time", "event_time", "date"}

// ByteCounterFields are coerced to numbers and always present after feature derivation.
var ByteCounterFields = []string{BytesToServer, BytesToClient, PktsToServer, PktsToClient}

// PortFields are coerced to numbers when present.
var PortFields = []string{SrcPort, DestPort, DestPortAlias}

// TextFields are created as null placeholders when the export lacks them.
var TextFields = []string{
	"proto", "app_proto", EventType, "tcp.state", "flow.state", "flow.reason",
	"geoip.country_code2", ASOrg,
}

// MinimalFields is the ordered projection written to flows_minimal.csv,
// restricted at write time to the columns that exist.
var MinimalFields = []string{
	TimestampUTC, SrcIP, SrcPort, "dest_ip", DestPort, "proto", "app_proto",
	BytesToServer, BytesToClient, PktsToServer, PktsToClient,
	"flow.state", "flow.reason", "tcp.state", "tcp.syn", "tcp.ack", "tcp.rst",
	Duration, BppServer, BppClient, "geoip.country_code2", "geoip.asn", ASOrg,
	EventType, "alert.signature", AlertCategory, AlertSeverity,
}
