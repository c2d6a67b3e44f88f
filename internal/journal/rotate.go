package journal

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// archiveWeeks is how long weekly archives are kept.
const archiveWeeks = 4

// RotationResult reports what RotateOldLogs did.
type RotationResult struct {
	Archived []string `json:"archived"`
	Removed  []string `json:"removed"`
}

// RotateOldLogs moves daily summaries older than the retention period into weekly
// tar.gz archives and deletes archives older than four weeks.
func (j *Journal) RotateOldLogs() (*RotationResult, error) {
	now := j.now()
	cutoff := now.AddDate(0, 0, -j.retentionDays)
	archiveCutoff := now.AddDate(0, 0, -7*archiveWeeks)
	result := &RotationResult{Archived: []string{}, Removed: []string{}}

	files, err := filepath.Glob(filepath.Join(j.dir, "journal_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	weekly := make(map[string][]string)
	for _, file := range files {
		date, ok := summaryDate(file)
		if !ok || !date.Before(cutoff) {
			continue
		}
		year, week := date.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		weekly[key] = append(weekly[key], file)
	}

	for key, daily := range weekly {
		archive := filepath.Join(j.archiveDir, fmt.Sprintf("journal_%s.tar.gz", key))
		if err := appendToArchive(archive, daily); err != nil {
			j.logger.WithError(err).WithField("week", key).Warn("Failed to archive daily summaries")
			continue
		}
		for _, file := range daily {
			if err := os.Remove(file); err != nil {
				j.logger.WithError(err).WithField("file", file).Warn("Failed to remove archived summary")
				continue
			}
			result.Archived = append(result.Archived, filepath.Base(file))
		}
	}

	archives, err := filepath.Glob(filepath.Join(j.archiveDir, "journal_*-W*.tar.gz"))
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	for _, archive := range archives {
		info, err := os.Stat(archive)
		if err != nil || !info.ModTime().Before(archiveCutoff) {
			continue
		}
		if err := os.Remove(archive); err != nil {
			j.logger.WithError(err).WithField("file", archive).Warn("Failed to remove old archive")
			continue
		}
		result.Removed = append(result.Removed, filepath.Base(archive))
	}

	j.logger.WithFields(map[string]interface{}{
		"archived": len(result.Archived),
		"removed":  len(result.Removed),
	}).Info("Journal rotation finished")

	return result, nil
}

// summaryDate extracts the day from a journal_<date>.json file name.
func summaryDate(path string) (time.Time, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "journal_"), ".json")
	date, err := time.ParseInLocation(dateLayout, name, time.Local)
	return date, err == nil
}

// appendToArchive writes files into a tar.gz archive, keeping any entries the
// archive already holds.
func appendToArchive(archivePath string, files []string) error {
	tmp := archivePath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	err = writeArchive(out, archivePath, files)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, archivePath)
}

func writeArchive(w io.Writer, existing string, files []string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	if err := copyArchive(tw, existing); err != nil {
		return err
	}
	for _, file := range files {
		if err := addFileToTar(tw, file); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", file, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// copyArchive copies the entries of an existing archive into tw. A missing
// archive is not an error.
func copyArchive(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", filepath.Base(path), err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.Copy(tw, tr); err != nil {
			return err
		}
	}
}

func addFileToTar(tw *tar.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filename)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}
