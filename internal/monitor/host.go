package monitor

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// HostSampler reads raw host counters.
type HostSampler interface {
	// CPUTimes returns cumulative busy and total CPU time in seconds
	CPUTimes() (busy, total float64, err error)
	// Memory returns total and available memory in bytes
	Memory() (total, available uint64, err error)
}

// procfsSampler reads /proc through prometheus/procfs.
type procfsSampler struct {
	fs procfs.FS
}

// NewProcfsSampler returns a HostSampler backed by the default /proc mount.
func NewProcfsSampler() (HostSampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}
	return &procfsSampler{fs: fs}, nil
}

func (p *procfsSampler) CPUTimes() (float64, float64, error) {
	stat, err := p.fs.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read /proc/stat: %w", err)
	}
	c := stat.CPUTotal
	idle := c.Idle + c.Iowait
	total := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
	return total - idle, total, nil
}

func (p *procfsSampler) Memory() (uint64, uint64, error) {
	mi, err := p.fs.Meminfo()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read /proc/meminfo: %w", err)
	}
	if mi.MemTotal == nil || *mi.MemTotal == 0 {
		return 0, 0, fmt.Errorf("meminfo has no MemTotal")
	}
	total := *mi.MemTotal * 1024
	var available uint64
	if mi.MemAvailable != nil {
		available = *mi.MemAvailable * 1024
	} else if mi.MemFree != nil {
		available = *mi.MemFree * 1024
	}
	return total, available, nil
}
