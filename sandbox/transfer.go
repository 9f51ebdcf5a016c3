package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
)

// uploadBytes writes data into the container at containerPath via a tar
// stream, creating the parent directory first, since docker's
// CopyToContainer call requires its destination directory to exist.
func (s *Sandbox) uploadBytes(ctx context.Context, data []byte, containerPath string) error {
	tr, err := singleFileTar(path.Base(containerPath), data)
	if err != nil {
		return fmt.Errorf("build upload archive: %w", err)
	}
	dir := path.Dir(containerPath)
	if _, _, err := s.runExec(ctx, []string{"mkdir", "-p", dir}); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return s.cli.CopyToContainer(ctx, s.containerID, dir, tr, container.CopyToContainerOptions{})
}

// WriteFile writes data directly to an absolute container path, for
// callers that need to place content somewhere other than the workspace
// (for instance, a companion module into the interpreter's site-packages)
// without first staging it as a host file.
func (s *Sandbox) WriteFile(ctx context.Context, containerPath string, data []byte) error {
	if err := s.uploadBytes(ctx, data, containerPath); err != nil {
		return fmt.Errorf("sandbox: write file %s: %w", containerPath, err)
	}
	return nil
}

// Upload copies a single host file into the workspace, keeping its base
// name.
func (s *Sandbox) Upload(ctx context.Context, hostPath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("sandbox: read host file: %w", err)
	}
	dest := path.Join(s.workspace, filepath.Base(hostPath))
	if err := s.uploadBytes(ctx, data, dest); err != nil {
		return fmt.Errorf("sandbox: upload %s: %w", hostPath, err)
	}
	return nil
}

// UploadTables copies a set of tabular data files (csv, parquet, or json
// by extension) into the workspace so a subsequent Execute can read them
// by name; these are the file kinds Execute's artifact diff excludes from
// its own output, since they round-trip as inputs rather than results.
func (s *Sandbox) UploadTables(ctx context.Context, hostPaths []string) error {
	for _, p := range hostPaths {
		ext := filepathExt(p)
		if _, ok := tabularExtensions[ext]; !ok {
			return fmt.Errorf("sandbox: upload_tables: %s is not a recognized tabular format", p)
		}
		if err := s.Upload(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func filepathExt(p string) string {
	for i := len(p) - 1; i >= 0 && p[i] != '/'; i-- {
		if p[i] == '.' {
			return toLowerASCII(p[i:])
		}
	}
	return ""
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// downloadFile pulls a single file out of the container to a host path.
func (s *Sandbox) downloadFile(ctx context.Context, containerPath, hostPath string) error {
	reader, _, err := s.cli.CopyFromContainer(ctx, s.containerID, containerPath)
	if err != nil {
		return fmt.Errorf("copy from container: %w", err)
	}
	defer reader.Close()

	tr, closeGz, err := gzipTarReader(reader)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer closeGz()

	hdr, err := tr.Next()
	if err != nil {
		return fmt.Errorf("read archive entry: %w", err)
	}
	if hdr.Typeflag != '\x00' && hdr.Typeflag != '0' {
		return fmt.Errorf("unexpected archive entry type for %s", containerPath)
	}

	out, err := os.Create(hostPath)
	if err != nil {
		return fmt.Errorf("create host file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, tr); err != nil {
		return fmt.Errorf("write host file: %w", err)
	}
	return nil
}

// DownloadArtifacts pulls every file currently in the workspace,
// preserved ones included, down to destDir on the host.
func (s *Sandbox) DownloadArtifacts(ctx context.Context, destDir string) ([]string, error) {
	files, err := s.listWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("sandbox: list workspace: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create dest dir: %w", err)
	}

	var out []string
	for containerPath := range files {
		hostPath := filepath.Join(destDir, filepath.Base(containerPath))
		if err := s.downloadFile(ctx, containerPath, hostPath); err != nil {
			return nil, fmt.Errorf("sandbox: download %s: %w", containerPath, err)
		}
		out = append(out, hostPath)
	}
	return out, nil
}

// Preserve marks a workspace file, by base name, to survive ClearWorkspace.
func (s *Sandbox) Preserve(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preserve[name] = struct{}{}
}

// ClearWorkspace deletes every file in the workspace except those marked
// with Preserve.
func (s *Sandbox) ClearWorkspace(ctx context.Context) error {
	files, err := s.listWorkspace(ctx)
	if err != nil {
		return fmt.Errorf("sandbox: list workspace: %w", err)
	}

	s.mu.Lock()
	preserve := make(map[string]struct{}, len(s.preserve))
	for k, v := range s.preserve {
		preserve[k] = v
	}
	s.mu.Unlock()

	for containerPath := range files {
		if _, keep := preserve[filepath.Base(containerPath)]; keep {
			continue
		}
		if _, _, err := s.runExec(ctx, []string{"rm", "-f", containerPath}); err != nil {
			return fmt.Errorf("sandbox: clear workspace: remove %s: %w", containerPath, err)
		}
	}
	return nil
}
