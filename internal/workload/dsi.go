package workload

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/evergreen"
)

// dsiArtifactName is part of the name of the evergreen artifact holding the DSI output of an execution.
const dsiArtifactName = "DSI Artifacts"

// FetchArtifacts downloads and unpacks the DSI artifact of every successful execution.
// Executions that have already been unpacked are skipped.
func (d *Driver) FetchArtifacts(ctx context.Context) error {
	executions, err := d.Executions(ctx)
	if err != nil {
		return err
	}
	var jobs []job
	for _, execution := range executions {
		dir := d.layout.ExecutionDir(execution)
		if !execution.Succeeded() {
			logging.WithField("dir", dir).Infof("Skipping execution with status %s", execution.Status)
			continue
		}
		artifact, ok := dsiArtifact(execution)
		if !ok {
			logging.WithField("dir", dir).Warn("Execution has no DSI artifact")
			continue
		}
		jobs = append(jobs, d.fetchArtifactJob(artifact, dir))
	}
	return runJobs(ctx, d.config.Workers, jobs)
}

func dsiArtifact(e *evergreen.TaskExecution) (evergreen.Artifact, bool) {
	for _, a := range e.Artifacts {
		if strings.Contains(a.Name, dsiArtifactName) {
			return a, true
		}
	}
	return evergreen.Artifact{}, false
}

func (d *Driver) fetchArtifactJob(artifact evergreen.Artifact, dir string) job {
	return func(ctx context.Context) error {
		log := logging.WithField("dir", dir)
		archive := filepath.Join(dir, DSIArtifactFile)
		output := filepath.Join(dir, WorkloadOutputDir)
		switch {
		case exists(archive):
			log.Info("Artifact already downloaded, skipping download")
			return unpack(archive, dir)
		case exists(output):
			log.Infof("%s already exists, skipping download", WorkloadOutputDir)
			return nil
		}
		log.Infof("Downloading %s", artifact.URL)
		if err := d.downloader.Download(ctx, artifact.URL, archive); err != nil {
			return errors.WithMessagef(err, "failed to download %s", artifact.URL)
		}
		if err := unpack(archive, dir); err != nil {
			return err
		}
		return errors.WithStack(os.Remove(archive))
	}
}

// unpack extracts archive into dir unless dir already holds a WorkloadOutput directory.
func unpack(archive, dir string) error {
	if exists(filepath.Join(dir, WorkloadOutputDir)) {
		return nil
	}
	logging.Infof("Unpacking %s", archive)
	f, err := os.Open(archive)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return errors.WithMessagef(extractTarGz(f, dir), "failed to unpack %s", archive)
}

func extractTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.WithStack(err)
	}
	defer gz.Close()

	root := filepath.Clean(dir) + string(os.PathSeparator)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.WithStack(err)
		}
		target := filepath.Join(dir, header.Name)
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return errors.Errorf("archive entry %s is outside of %s", header.Name, dir)
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.WithStack(err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, header.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			logging.Debugf("Ignoring archive entry %s of type %c", header.Name, header.Typeflag)
		}
	}
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}
