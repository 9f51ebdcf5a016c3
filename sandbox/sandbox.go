// Package sandbox wraps a single Docker container as an isolated
// Python/R execution environment: code goes in over a tar stream, output
// and any new files come back the same way, and a background sampler
// tracks peak memory for each execution.
package sandbox

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	golog "github.com/bioagentic/orchestrator/log"
)

// Language selects the interpreter Execute invokes.
type Language string

const (
	Python Language = "python"
	R      Language = "r"
)

// DefaultWorkspace is the writable directory inside the container that
// code executes in and that upload/download operate against, matching the
// sandbox image contract.
const DefaultWorkspace = "/workdir"

const codeDir = "/code"

// ExecResult is the outcome of one Execute call.
type ExecResult struct {
	ExitCode       int
	Stdout         string
	Artifacts      []string // host paths of newly created, non-tabular workspace files
	RunningTimeS   float64
	PeakMemoryMB   float64
}

// Sandbox is a handle to one running container. It is not safe to share
// across concurrent agents: one container belongs to one agent instance.
type Sandbox struct {
	cli         *client.Client
	containerID string
	workspace   string
	preserve    map[string]struct{}
	artifactDir string
	mu          sync.Mutex
}

// New attaches to an existing container (if id looks like an existing
// container ID) or starts a fresh one from the given image. It returns an
// error rather than panicking so callers can degrade gracefully: per the
// sandbox's optional-availability contract, a construction failure means
// the caller logs a warning and continues without execution capability.
func New(ctx context.Context, imageOrContainerID string) (*Sandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("sandbox: docker client: %w", err)
	}

	s := &Sandbox{cli: cli, workspace: DefaultWorkspace, preserve: make(map[string]struct{})}

	if existing, err := cli.ContainerInspect(ctx, imageOrContainerID); err == nil {
		s.containerID = existing.ID
		if !existing.State.Running {
			if err := cli.ContainerStart(ctx, s.containerID, container.StartOptions{}); err != nil {
				return nil, fmt.Errorf("sandbox: restart existing container: %w", err)
			}
		}
		return s, nil
	}

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:        imageOrContainerID,
		Cmd:          []string{"sleep", "infinity"},
		WorkingDir:   s.workspace,
		ExposedPorts: nat.PortSet{},
		Tty:          false,
	}, &container.HostConfig{
		PortBindings: nat.PortMap{},
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("sandbox: create container: %w", err)
	}
	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("sandbox: start container: %w", err)
	}
	s.containerID = resp.ID
	return s, nil
}

// interpreterFor maps a Language to the binary Execute invokes inside the
// container; both are expected on PATH per the sandbox image contract.
func interpreterFor(lang Language) (string, error) {
	switch lang {
	case Python:
		return "python", nil
	case R:
		return "Rscript", nil
	default:
		return "", fmt.Errorf("sandbox: unsupported language %q", lang)
	}
}

// Execute writes code to a unique file under /code/, runs the
// corresponding interpreter with the workspace as its working directory,
// and returns combined stdout/stderr truncated to RawOutputTokenLimit by
// MiddleTruncate. It never returns an error for a non-zero exit: that is
// reported through ExecResult.ExitCode, not the error return.
func (s *Sandbox) Execute(ctx context.Context, lang Language, code string) (*ExecResult, error) {
	bin, err := interpreterFor(lang)
	if err != nil {
		return nil, err
	}

	execID := uuid.NewString()
	ext := ".py"
	if lang == R {
		ext = ".R"
	}
	scriptPath := path.Join(codeDir, execID+ext)

	if err := s.uploadBytes(ctx, []byte(code), scriptPath); err != nil {
		return nil, fmt.Errorf("sandbox: upload script: %w", err)
	}

	before, err := s.listWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("sandbox: list workspace before exec: %w", err)
	}

	sampler := newMemorySampler(ctx, s.cli, s.containerID, 100*time.Millisecond)
	sampler.Start()

	start := time.Now()
	exitCode, output, err := s.runExec(ctx, []string{bin, scriptPath})
	elapsed := time.Since(start).Seconds()
	peak := sampler.Stop()
	if err != nil {
		return nil, fmt.Errorf("sandbox: exec: %w", err)
	}

	after, err := s.listWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("sandbox: list workspace after exec: %w", err)
	}

	artifacts, err := s.collectArtifacts(ctx, execID, before, after)
	if err != nil {
		return nil, fmt.Errorf("sandbox: collect artifacts: %w", err)
	}

	return &ExecResult{
		ExitCode:     exitCode,
		Stdout:       MiddleTruncate(output, RawOutputTokenLimit),
		Artifacts:    artifacts,
		RunningTimeS: elapsed,
		PeakMemoryMB: peak,
	}, nil
}

// runExec spawns cmd inside the container and returns its exit code and
// combined stdout/stderr.
func (s *Sandbox) runExec(ctx context.Context, cmd []string) (int, string, error) {
	execResp, err := s.cli.ContainerExecCreate(ctx, s.containerID, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   s.workspace,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, "", fmt.Errorf("exec create: %w", err)
	}

	attach, err := s.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return 0, "", fmt.Errorf("exec attach: %w", err)
	}
	defer attach.Close()

	var output bytes.Buffer
	if _, err := stdcopy.StdCopy(&output, &output, attach.Reader); err != nil {
		return 0, "", fmt.Errorf("exec read output: %w", err)
	}

	inspect, err := s.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return 0, output.String(), fmt.Errorf("exec inspect: %w", err)
	}
	return inspect.ExitCode, output.String(), nil
}

// listWorkspace returns the set of file paths currently at the top level
// of the workspace, as absolute container paths, used to diff
// before/after Execute for new artifacts.
func (s *Sandbox) listWorkspace(ctx context.Context) (map[string]struct{}, error) {
	_, out, err := s.runExec(ctx, []string{"find", s.workspace, "-maxdepth", "1", "-type", "f"})
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	return set, nil
}

// SitePackagesDir asks the container's own Python for its site-packages
// directory, so a caller installing a companion module doesn't need to
// hardcode an interpreter version or install layout.
func (s *Sandbox) SitePackagesDir(ctx context.Context) (string, error) {
	_, out, err := s.runExec(ctx, []string{"python", "-c", "import site; print(site.getsitepackages()[0])"})
	if err != nil {
		return "", fmt.Errorf("sandbox: resolve site-packages dir: %w", err)
	}
	return strings.TrimSpace(out), nil
}

var tabularExtensions = map[string]struct{}{".csv": {}, ".parquet": {}, ".json": {}}

// collectArtifacts pulls every non-tabular file present after Execute but
// not before into a fresh host directory under /tmp/<execID>/ and returns
// the host paths.
func (s *Sandbox) collectArtifacts(ctx context.Context, execID string, before, after map[string]struct{}) ([]string, error) {
	var newPaths []string
	for p := range after {
		if _, existed := before[p]; existed {
			continue
		}
		if _, tabular := tabularExtensions[strings.ToLower(filepath.Ext(p))]; tabular {
			continue
		}
		newPaths = append(newPaths, p)
	}
	if len(newPaths) == 0 {
		return nil, nil
	}

	hostDir := filepath.Join(os.TempDir(), execID)
	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		return nil, err
	}

	var hostPaths []string
	for _, containerPath := range newPaths {
		hostPath := filepath.Join(hostDir, filepath.Base(containerPath))
		if err := s.downloadFile(ctx, containerPath, hostPath); err != nil {
			return nil, err
		}
		hostPaths = append(hostPaths, hostPath)
	}
	return hostPaths, nil
}

// Stop stops and force-removes the container. The host artifact
// directories that Execute created under os.TempDir() are not deleted.
func (s *Sandbox) Stop(ctx context.Context) error {
	timeout := 0
	if err := s.cli.ContainerStop(ctx, s.containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		golog.Warn("sandbox: stop container %s: %v", s.containerID, err)
	}
	if err := s.cli.ContainerRemove(ctx, s.containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("sandbox: remove container: %w", err)
	}
	return nil
}

// singleFileTar packs a single file's bytes into a one-entry tar stream
// under name, the shape docker's CopyToContainer API expects.
func singleFileTar(name string, data []byte) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(data))}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write(data); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// gzipTarReader wraps CopyFromContainer's tar stream with gzip decoding
// when the engine returns a compressed archive; docker's API returns a
// plain tar, but compress/gzip stays available for callers re-archiving
// artifacts for long-term storage. The gzip magic bytes are only peeked,
// so a plain tar is read from its first byte.
func gzipTarReader(r io.Reader) (*tar.Reader, func() error, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(gz), gz.Close, nil
	}
	return tar.NewReader(br), func() error { return nil }, nil
}
