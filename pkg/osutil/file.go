// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileExists reports whether path exists and is accessible.
// It returns true for any non-ErrNotExist stat result, including permission errors.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// CopyFile copies a regular file preserving its mode bits.
// The destination is written via a temporary file in the same directory and
// renamed into place, so a partially written copy never shadows dst.
func CopyFile(dst, src string) error {
	srcF, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcF.Close()
	srcInfo, err := srcF.Stat()
	if err != nil {
		return err
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("cannot copy %q: not a regular file", src)
	}
	dstTmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(dstTmp.Name())
	if _, err := io.Copy(dstTmp, srcF); err != nil {
		dstTmp.Close()
		return err
	}
	if err := dstTmp.Chmod(srcInfo.Mode().Perm()); err != nil {
		dstTmp.Close()
		return err
	}
	if err := dstTmp.Close(); err != nil {
		return err
	}
	return os.Rename(dstTmp.Name(), dst)
}

// BackupTimestampFormat names backup copies so that repeated backups of the
// same file sort chronologically.
const BackupTimestampFormat = "20060102-150405"

// BackupFile copies src into backupDir as <base>.bak.<timestamp> and returns
// the backup path. backupDir is created if needed.
func BackupFile(src, backupDir string) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	backupPath := filepath.Join(backupDir,
		fmt.Sprintf("%s.bak.%s", filepath.Base(src), time.Now().Format(BackupTimestampFormat)))
	if err := CopyFile(backupPath, src); err != nil {
		return "", err
	}
	return backupPath, nil
}

// WriteFileAtomically writes data to path via a temporary file in the same
// directory followed by a rename.
func WriteFileAtomically(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
