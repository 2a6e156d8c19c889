package model

// ClusterPhase tracks the launcher's position in the bring-up state machine.
type ClusterPhase int

const (
	ClusterInit ClusterPhase = iota
	ClusterPrereqCheck
	ClusterClean
	ClusterBuild
	ClusterConfigEnsure
	ClusterStart
	ClusterSettle
	ClusterVerify
	ClusterReport
	ClusterSuccess
	ClusterDegraded
	ClusterFailed
)

var clusterPhaseNames = map[ClusterPhase]string{
	ClusterInit:         "init",
	ClusterPrereqCheck:  "prereq_check",
	ClusterClean:        "clean",
	ClusterBuild:        "build",
	ClusterConfigEnsure: "config_ensure",
	ClusterStart:        "start",
	ClusterSettle:       "settle",
	ClusterVerify:       "verify",
	ClusterReport:       "report",
	ClusterSuccess:      "success",
	ClusterDegraded:     "degraded",
	ClusterFailed:       "failed",
}

func (p ClusterPhase) String() string {
	if name, ok := clusterPhaseNames[p]; ok {
		return name
	}
	return "unknown"
}
