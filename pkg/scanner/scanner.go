package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/flanksource/clicky/task"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/commons/text"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/flanksource/vstscan/pkg/vendor"
	"github.com/flanksource/vstscan/pkg/version"
)

// Scanner discovers plugins on disk and reads their metadata into records
type Scanner struct {
	normalizer *vendor.Normalizer
	workers    int
	extensions []string
	task       *task.Task
}

// New creates a scanner. The normalizer is only used to recognise vendor folders;
// records leave the scanner with their raw vendor.
func New(n *vendor.Normalizer, opts ...Option) *Scanner {
	if n == nil {
		n = vendor.Default()
	}
	s := &Scanner{
		normalizer: n,
		workers:    DefaultWorkers,
		extensions: append([]string{}, DefaultExtensions...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileError is a plugin whose metadata could not be read. The plugin is still reported
// with metadata derived from its file name.
type FileError struct {
	Path string `json:"path" yaml:"path"`
	Err  error  `json:"-" yaml:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a scan, records are sorted by source path
type Result struct {
	Records []types.Record
	Errors  []FileError
	// Bytes is the on-disk size of the plugins that were read
	Bytes int64
}

// Scan discovers and reads every plugin under roots. Only discovery failures are returned as
// errors, unreadable plugins are collected in Result.Errors.
func (s *Scanner) Scan(ctx context.Context, roots []string) (Result, error) {
	candidates, err := s.Discover(ctx, roots)
	if err != nil {
		return Result{}, err
	}
	if s.task != nil {
		s.task.SetDescription(fmt.Sprintf("Reading %d plugins", len(candidates)))
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result Result
		sem    = make(chan struct{}, s.workers)
	)

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(c Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			record, err := s.Extract(c)
			size := diskSize(c)

			mu.Lock()
			defer mu.Unlock()
			result.Records = append(result.Records, record)
			result.Bytes += size
			if err != nil {
				result.Errors = append(result.Errors, FileError{Path: c.Path, Err: err})
			}
		}(c)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].SourcePath < result.Records[j].SourcePath
	})
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Path < result.Errors[j].Path })

	for _, e := range result.Errors {
		if s.task != nil {
			s.task.Warnf("Could not read metadata of %s: %v", utils.LogPath(e.Path), e.Err)
		} else {
			logger.Warnf("Could not read metadata of %s: %v", utils.LogPath(e.Path), e.Err)
		}
	}
	utils.LogScanSummary(s.task, roots, len(candidates), len(result.Records), len(result.Errors))
	logger.V(2).Infof("Read %d plugins (%s)", len(result.Records), text.HumanizeBytes(result.Bytes))

	return result, nil
}

// Extract reads the metadata of one candidate. A record is always returned; the error reports
// metadata that could not be read, in which case file name fallbacks are used.
func (s *Scanner) Extract(c Candidate) (types.Record, error) {
	var (
		meta metadata
		errs []string
	)
	collect := func(m metadata, err error) {
		if err != nil {
			errs = append(errs, err.Error())
			return
		}
		meta.merge(m)
	}

	record := types.Record{SourcePath: c.Path, Format: c.Format}

	switch {
	case c.Bundle && c.Format == types.FormatVST3:
		collect(readModuleInfo(c.Path))
		collect(readInfoPlist(c.Path))
		record.Arch = bundleArch(c.Path)
	case c.Bundle:
		collect(readSidecar(c.Path))
		collect(readInfoPlist(c.Path))
		record.Arch = bundleArch(c.Path)
	default:
		collect(readSidecar(c.Path))
		record.Arch = binaryArch(c.Path)
	}

	stem := strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
	record.Name = utils.CleanPluginName(meta.Name)
	if record.Name == "" {
		record.Name = utils.CleanPluginName(stem)
	}
	if record.Name == "" {
		record.Name = filepath.Base(c.Path)
	}

	record.RawVendor = utils.CollapseSpaces(meta.Vendor)
	if record.RawVendor == "" {
		record.RawVendor = utils.CollapseSpaces(meta.Copyright)
	}
	if record.RawVendor == "" {
		record.RawVendor = s.folderVendor(c)
	}
	if strings.Contains(strings.ToLower(stem), "waveshell") {
		record.RawVendor = "Waves"
	}

	record.Version = cleanVersion(meta.Version)
	record.Identifier = strings.TrimSpace(meta.Identifier)

	if len(errs) > 0 {
		return record, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return record, nil
}

// folderVendor returns the first parent folder, up to the scan root, named after a known vendor
func (s *Scanner) folderVendor(c Candidate) string {
	dir := filepath.Dir(c.Path)
	for {
		if label, ok := s.normalizer.Lookup(filepath.Base(dir)); ok {
			return label
		}
		if dir == c.Root || !strings.HasPrefix(dir, c.Root) {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// cleanVersion keeps comparable versions as they are and digs the version out of free text
// such as "Version 3.0.1 (build 42)"
func cleanVersion(v string) string {
	v = utils.CollapseSpaces(v)
	if v == "" || version.Parseable(v) {
		return v
	}
	if extracted, err := version.Extract(v, ""); err == nil && extracted != "" {
		return extracted
	}
	return v
}

func diskSize(c Candidate) int64 {
	if !c.Bundle {
		if info, err := os.Stat(c.Path); err == nil {
			return info.Size()
		}
		return 0
	}

	var size int64
	_ = filepath.WalkDir(c.Path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
