package probe

import "runtime"

// Commands are the diagnostic commands for one platform. An empty command
// means the platform has none.
type Commands struct {
	Uname   string
	CPUInfo string
}

var commandTable = map[string]Commands{
	"linux": {
		Uname:   "uname -a",
		CPUInfo: "lscpu",
	},
	"darwin": {
		Uname:   "uname -a",
		CPUInfo: "system_profiler SPHardwareDataType",
	},
	"freebsd": {
		Uname:   "uname -a",
		CPUInfo: "sysctl hw.model hw.machine hw.ncpu",
	},
	"openbsd": {
		Uname:   "uname -a",
		CPUInfo: "sysctl hw.model hw.machine hw.ncpu",
	},
	"netbsd": {
		Uname:   "uname -a",
		CPUInfo: "sysctl hw.model hw.machine hw.ncpu",
	},
	"windows": {
		Uname:   "ver",
		CPUInfo: "wmic cpu get Name,MaxClockSpeed,NumberOfCores",
	},
}

// CommandsFor returns the commands for goos. Unknown Unix-likes still get
// uname.
func CommandsFor(goos string) Commands {
	if c, ok := commandTable[goos]; ok {
		return c
	}

	return Commands{Uname: "uname -a"}
}

// Local returns the commands for the running OS.
func Local() Commands {
	return CommandsFor(runtime.GOOS)
}
