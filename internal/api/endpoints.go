package api

const (
	versionPath    = "/api/version"
	resetPath      = "/api/system/algorithm/reset"
	algorithmPath  = "/api/system/algorithm"
	algorithmsPath = "/api/system/algorithms"

	speedPath              = "/api/command/speed"
	loggingPath            = "/api/command/logging"
	destinationReachedPath = "/api/command/destination-reached"
	followPath             = "/api/command/follow"
	turnPath               = "/api/command/turn"

	// MonitoringPath is the websocket endpoint streaming robot log lines.
	MonitoringPath = "/api/monitoring"
)

// operation pairs a metrics label with the fixed message callers see on failure.
type operation struct {
	name    string
	failure string
}

var (
	opVersion       = operation{"version", "Failed to fetch version"}
	opReset         = operation{"reset", "Failed to reset"}
	opAlgorithm     = operation{"algorithm", "Failed to fetch algorithm"}
	opAlgorithmList = operation{"algorithm_list", "Failed to fetch algorithm list"}
	opSetAlgorithm  = operation{"set_algorithm", "Failed to set algorithm"}

	opSetSpeed           = operation{"set_speed", "Failed to set speed"}
	opSetLogging         = operation{"set_logging", "Failed to set logging"}
	opDestinationReached = operation{"destination_reached", "Failed to signal destination reached"}
	opFollowLine         = operation{"follow_line", "Failed to follow line"}
	opTurn               = operation{"turn", "Failed to turn"}
)
