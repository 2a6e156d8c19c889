// Package verify implements post-start health verification: concurrent,
// bounded-time probes against every expected cluster member, collected into
// a single report. Probes are observational and independent; running them
// concurrently bounds total wall time to roughly the slowest probe's timeout
// instead of their sum.
package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
	"github.com/stackpilot/stackpilot/internal/model"
	"github.com/stackpilot/stackpilot/internal/sysinfo"
)

const gigabyte = 1 << 30

// Verifier runs the post-start probe battery.
type Verifier struct {
	cfg    *config.Config
	docker *compose.Client
	sys    sysinfo.Probe
	log    *logger.Logger

	httpClient *http.Client
	dialer     net.Dialer
}

// New creates a Verifier.
func New(cfg *config.Config, docker *compose.Client, sys sysinfo.Probe, log *logger.Logger) *Verifier {
	return &Verifier{
		cfg:        cfg,
		docker:     docker,
		sys:        sys,
		log:        log,
		httpClient: &http.Client{},
	}
}

// Verify probes every descriptor and returns the verification report. It
// always runs to completion across all descriptors so the operator sees the
// full picture; failures surface as results, never as errors.
func (v *Verifier) Verify(ctx context.Context) *model.RunReport {
	report := model.NewRunReport(model.PhaseVerification)
	timeout := v.cfg.Verify.ProbeTimeout.Std()

	// One listing feeds every liveness probe. If the runtime cannot even
	// enumerate containers, that is a single blocking finding; the
	// network, database, and resource probes still run.
	listCtx, cancel := context.WithTimeout(ctx, timeout)
	containers, listErr := v.docker.ListContainers(listCtx)
	cancel()

	var wg sync.WaitGroup
	probe := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if listErr != nil {
		report.Append(model.ProbeResult{
			Category:    model.CategoryContainer,
			Name:        "container listing",
			Severity:    model.SeverityBlocking,
			Passed:      false,
			Message:     listErr.Error(),
			Remediation: "confirm the container runtime daemon is running",
			Timestamp:   time.Now(),
		})
	}

	for _, svc := range v.cfg.Services {
		svc := svc

		if listErr == nil {
			probe(func() { report.Append(v.probeLiveness(svc, containers)) })
		}
		if svc.HTTP != nil {
			probe(func() { report.Append(v.probeHTTP(ctx, svc, timeout)) })
		}
		if svc.TCP != nil {
			probe(func() { report.Append(v.probeTCP(ctx, svc, timeout)) })
		}
	}

	if v.cfg.Database != nil {
		probe(func() { report.Append(v.probeDatabase(ctx, timeout)...) })
	}

	probe(func() { report.Append(v.probeDisk()) })

	wg.Wait()

	v.log.WithFields(map[string]any{
		"probes":   report.Len(),
		"blocking": report.HasBlocking(),
	}).Info("verification complete")

	return report
}

// probeLiveness resolves the live container matching the descriptor. A
// missing or non-running container is blocking: nothing downstream can be
// healthy without it.
func (v *Verifier) probeLiveness(svc config.ServiceDescriptor, containers []compose.Container) model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryContainer,
		Name:        svc.Name + " container",
		Severity:    model.SeverityBlocking,
		Remediation: fmt.Sprintf("restart the %s service or inspect its logs", svc.Name),
	}

	var matched *compose.Container
	for i := range containers {
		ok, err := svc.Match.Matches(containers[i].Name)
		if err != nil {
			res.Message = err.Error()
			return finish(res, start)
		}
		if ok {
			matched = &containers[i]
			break
		}
	}

	switch {
	case matched == nil:
		res.Message = fmt.Sprintf("no container matched %s pattern %q", svc.Match.Kind, svc.Match.Pattern)
	case !matched.Running():
		res.Message = fmt.Sprintf("container %s is %s, expected %s", matched.Name, matched.State, svc.ExpectedState)
	default:
		res.Passed = true
		res.Message = fmt.Sprintf("container %s is running", matched.Name)
	}

	return finish(res, start)
}

// probeHTTP hits the descriptor's health endpoint. Health endpoints are
// best-effort diagnostics, so failures stay advisory.
func (v *Verifier) probeHTTP(ctx context.Context, svc config.ServiceDescriptor, defaultTimeout time.Duration) model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryNetwork,
		Name:        svc.Name + " health endpoint",
		Severity:    model.SeverityAdvisory,
		Remediation: fmt.Sprintf("check the %s service logs; the endpoint may still be warming up", svc.Name),
	}

	timeout := defaultTimeout
	if svc.HTTP.Timeout > 0 {
		timeout = svc.HTTP.Timeout.Std()
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, svc.HTTP.URL, nil)
	if err != nil {
		res.Message = err.Error()
		return finish(res, start)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		res.Message = fmt.Sprintf("GET %s failed: %v", svc.HTTP.URL, err)
		return finish(res, start)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Message = fmt.Sprintf("GET %s returned status %d", svc.HTTP.URL, resp.StatusCode)
		return finish(res, start)
	}

	res.Passed = true
	res.Message = fmt.Sprintf("GET %s returned status %d", svc.HTTP.URL, resp.StatusCode)
	return finish(res, start)
}

// probeTCP is a raw connect-and-close check. It is the one network probe
// treated as load-bearing: raw-port services expose no richer health signal.
func (v *Verifier) probeTCP(ctx context.Context, svc config.ServiceDescriptor, defaultTimeout time.Duration) model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryNetwork,
		Name:        svc.Name + " port",
		Severity:    model.SeverityBlocking,
		Remediation: fmt.Sprintf("restart the %s service; its listener on %s is not accepting connections", svc.Name, svc.TCP.Address),
	}

	timeout := defaultTimeout
	if svc.TCP.Timeout > 0 {
		timeout = svc.TCP.Timeout.Std()
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := v.dialer.DialContext(dialCtx, "tcp", svc.TCP.Address)
	if err != nil {
		res.Message = fmt.Sprintf("%s unreachable: %v", svc.TCP.Address, err)
		return finish(res, start)
	}
	_ = conn.Close()

	res.Passed = true
	res.Message = svc.TCP.Address + " reachable"
	return finish(res, start)
}

// probeDatabase checks readiness (blocking) and then schema presence
// (advisory — the schema may simply not be initialized yet). The schema
// check depends on readiness, so the two run in sequence inside one probe.
func (v *Verifier) probeDatabase(ctx context.Context, timeout time.Duration) []model.ProbeResult {
	db := v.cfg.Database

	start := time.Now()
	ready := model.ProbeResult{
		Category:    model.CategoryDatabase,
		Name:        "database readiness",
		Severity:    model.SeverityBlocking,
		Remediation: fmt.Sprintf("inspect the %s service logs; the database is not accepting connections", db.Service),
	}

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	out, err := v.docker.Exec(readyCtx, db.Service, "pg_isready", "-U", db.User, "-d", db.Name)
	cancel()
	if err != nil {
		ready.Message = fmt.Sprintf("pg_isready failed: %v: %s", err, strings.TrimSpace(string(out)))
		return []model.ProbeResult{finish(ready, start)}
	}

	ready.Passed = true
	ready.Message = strings.TrimSpace(string(out))
	results := []model.ProbeResult{finish(ready, start)}

	schemaStart := time.Now()
	schema := model.ProbeResult{
		Category:    model.CategoryDatabase,
		Name:        "database schema",
		Severity:    model.SeverityAdvisory,
		Remediation: "run the schema migrations if the stack has never been initialized",
	}

	query := fmt.Sprintf("select count(*) from information_schema.tables where table_schema = '%s'", db.Schema)
	schemaCtx, cancel := context.WithTimeout(ctx, timeout)
	out, err = v.docker.Exec(schemaCtx, db.Service, "psql", "-U", db.User, "-d", db.Name, "-tAc", query)
	cancel()

	switch {
	case err != nil:
		schema.Message = fmt.Sprintf("schema listing failed: %v", err)
	default:
		count, convErr := strconv.Atoi(strings.TrimSpace(string(out)))
		switch {
		case convErr != nil:
			schema.Message = fmt.Sprintf("unexpected schema listing output: %q", strings.TrimSpace(string(out)))
		case count == 0:
			schema.Message = fmt.Sprintf("schema %q has no tables", db.Schema)
		default:
			schema.Passed = true
			schema.Message = fmt.Sprintf("schema %q has %d tables", db.Schema, count)
		}
	}

	return append(results, finish(schema, schemaStart))
}

// probeDisk applies the lower post-start threshold: the stack is already
// running, so shrinking headroom is a warning rather than a gate.
func (v *Verifier) probeDisk() model.ProbeResult {
	start := time.Now()
	res := model.ProbeResult{
		Category:    model.CategoryResource,
		Name:        "free disk space",
		Severity:    model.SeverityAdvisory,
		Remediation: "free disk space before the database or image store fills up",
	}

	free, err := v.sys.FreeDisk(v.cfg.Prereq.DiskPath)
	switch {
	case errors.Is(err, sysinfo.ErrUnavailable):
		res.Passed = true
		res.Message = "free disk space could not be determined on this platform"
	case err != nil:
		res.Message = fmt.Sprintf("disk inspection failed: %v", err)
	case float64(free) < v.cfg.Verify.MinDiskGB*gigabyte:
		res.Message = fmt.Sprintf("%.1f GB free, %.1f GB recommended", float64(free)/gigabyte, v.cfg.Verify.MinDiskGB)
	default:
		res.Passed = true
		res.Message = fmt.Sprintf("%.1f GB free", float64(free)/gigabyte)
	}

	return finish(res, start)
}

func finish(res model.ProbeResult, start time.Time) model.ProbeResult {
	res.Duration = time.Since(start)
	res.Timestamp = time.Now()
	return res
}
