// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package sysinfo collects host metrics for `status --all` and `info`.
// Collection is best effort; a failing collector leaves its section nil
// rather than failing the command.
package sysinfo

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

type Host struct {
	Hostname string `json:"hostname"`
	// Uptime in seconds.
	Uptime uint64 `json:"uptime"`
	OS     string `json:"os,omitempty"`
	Kernel string `json:"kernel,omitempty"`
}

type Memory struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

type Disk struct {
	MountPoint  string  `json:"mountPoint"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

type Load struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

type Port struct {
	Port      int  `json:"port"`
	Listening bool `json:"listening"`
}

type Info struct {
	Host   Host    `json:"host"`
	Memory *Memory `json:"memory,omitempty"`
	Load   *Load   `json:"load,omitempty"`
	Disks  []Disk  `json:"disks,omitempty"`
	Ports  []Port  `json:"ports,omitempty"`
}

// Collect gathers host metrics.
func Collect() *Info {
	info := &Info{}

	if hi, err := host.Info(); err == nil {
		info.Host.Hostname = hi.Hostname
		info.Host.Uptime = hi.Uptime
		info.Host.OS = fmt.Sprintf("%s %s", hi.Platform, hi.PlatformVersion)
		info.Host.Kernel = hi.KernelVersion
	} else {
		logrus.WithError(err).Debug("failed to collect host info")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.Memory = &Memory{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}
	} else {
		logrus.WithError(err).Debug("failed to collect memory info")
	}

	if avg, err := load.Avg(); err == nil {
		info.Load = &Load{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	} else {
		logrus.WithError(err).Debug("failed to collect load averages")
	}

	if parts, err := disk.Partitions(false); err == nil {
		for _, part := range parts {
			usage, err := disk.Usage(part.Mountpoint)
			if err != nil {
				logrus.WithError(err).Debugf("failed to collect disk usage of %q", part.Mountpoint)
				continue
			}
			info.Disks = append(info.Disks, Disk{
				MountPoint:  part.Mountpoint,
				Total:       usage.Total,
				Used:        usage.Used,
				UsedPercent: usage.UsedPercent,
			})
		}
	} else {
		logrus.WithError(err).Debug("failed to enumerate disk partitions")
	}

	return info
}

// ProbePorts dials every distinct port the services are expected to listen
// on. Ports are probed on localhost; services binding elsewhere still bind
// localhost in this stack (the nginx proxy and msfrpcd default to it).
func ProbePorts(services []*store.Service) []Port {
	const dialTimeout = 500 * time.Millisecond
	var ports []int
	for _, svc := range services {
		for _, p := range svc.Ports {
			if !slices.Contains(ports, p) {
				ports = append(ports, p)
			}
		}
	}
	slices.Sort(ports)
	probed := make([]Port, 0, len(ports))
	for _, p := range ports {
		probed = append(probed, Port{Port: p, Listening: osutil.IsTCPPortOpen("127.0.0.1", p, dialTimeout)})
	}
	return probed
}

// Write renders the collected info as an aligned human-readable block.
func (info *Info) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 4, 8, 4, ' ', 0)
	fmt.Fprintf(tw, "hostname:\t%s\n", info.Host.Hostname)
	if info.Host.OS != "" {
		fmt.Fprintf(tw, "os:\t%s (%s)\n", info.Host.OS, info.Host.Kernel)
	}
	fmt.Fprintf(tw, "uptime:\t%s\n", units.HumanDuration(time.Duration(info.Host.Uptime)*time.Second))
	if info.Memory != nil {
		fmt.Fprintf(tw, "memory:\t%s / %s (%.1f%%)\n",
			units.BytesSize(float64(info.Memory.Used)),
			units.BytesSize(float64(info.Memory.Total)),
			info.Memory.UsedPercent)
	}
	if info.Load != nil {
		fmt.Fprintf(tw, "load:\t%.2f %.2f %.2f\n", info.Load.Load1, info.Load.Load5, info.Load.Load15)
	}
	for _, d := range info.Disks {
		fmt.Fprintf(tw, "disk %s:\t%s / %s (%.1f%%)\n",
			d.MountPoint,
			units.BytesSize(float64(d.Used)),
			units.BytesSize(float64(d.Total)),
			d.UsedPercent)
	}
	for _, p := range info.Ports {
		state := "not listening"
		if p.Listening {
			state = "listening"
		}
		fmt.Fprintf(tw, "port %d:\t%s\n", p.Port, state)
	}
	return tw.Flush()
}
