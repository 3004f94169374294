package manifest

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/supaharris/shingest/internal/ingest"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed datasets/*.cue
var builtinFS embed.FS

// LoadMode controls how errors are handled during manifest loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes, shared with the CLI's JSON output.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No CUE files found
	ErrCodeLoadFailed       = "E004" // File unreadable or not valid CUE
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeSchema           = "E006" // Dataset violates #Dataset
	ErrCodeInvalidDataset   = "E201" // Dataset fails semantic validation
	ErrCodeDuplicateDataset = "E202" // Same dataset name in two files
	ErrCodeNoDatasets       = "E203" // File declares no datasets
)

// LoadError represents an error that occurred during manifest loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Set is a collection of datasets keyed by name.
type Set struct {
	datasets map[string]ingest.Dataset
	origins  map[string]string
}

func newSet() *Set {
	return &Set{datasets: map[string]ingest.Dataset{}, origins: map[string]string{}}
}

// Names returns the dataset names in lexical order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named dataset.
func (s *Set) Get(name string) (ingest.Dataset, bool) {
	ds, ok := s.datasets[name]
	return ds, ok
}

// Origin returns the file a dataset was loaded from.
func (s *Set) Origin(name string) string {
	return s.origins[name]
}

// Len returns the number of datasets.
func (s *Set) Len() int {
	return len(s.datasets)
}

func (s *Set) put(ds ingest.Dataset, origin string) {
	s.datasets[ds.Name] = ds
	s.origins[ds.Name] = origin
}

// Builtin returns the embedded manifests. It panics if they are invalid,
// which tests rule out.
func Builtin() *Set {
	set, errs := loadFS(builtinFS, "datasets", LoadModeFailFast)
	if len(errs) > 0 {
		panic(fmt.Sprintf("manifest: builtin manifests: %v", errs[0]))
	}
	return set
}

// Load returns the built-in datasets overlaid with those in dir. An empty
// dir loads only the built-ins.
func Load(dir string, mode LoadMode) (*Set, []error) {
	set := Builtin()
	if dir == "" {
		return set, nil
	}
	user, errs := LoadDir(dir, mode)
	if user != nil {
		for _, name := range user.Names() {
			ds, _ := user.Get(name)
			set.put(ds, user.Origin(name))
		}
	}
	return set, errs
}

// LoadDir loads every .cue file under dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*Set, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing manifest directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}
	return loadFS(os.DirFS(dir), ".", mode, withPrefix(dir))
}

type loadOption func(*loader)

// withPrefix reports positions relative to dir instead of the FS root.
func withPrefix(dir string) loadOption {
	return func(l *loader) { l.prefix = dir }
}

type loader struct {
	ctx    *cue.Context
	schema cue.Value
	prefix string
	mode   LoadMode
}

func loadFS(fsys fs.FS, root string, mode LoadMode, opts ...loadOption) (*Set, []error) {
	l := &loader{ctx: cuecontext.New(), mode: mode}
	for _, opt := range opts {
		opt(l)
	}

	files, err := FindCUEFiles(fsys, root)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		where := root
		if l.prefix != "" {
			where = l.prefix
		}
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", where)}}
	}
	l.schema = l.ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := l.schema.Err(); err != nil {
		return nil, []error{fromCUE(ErrCodeGeneric, err)}
	}

	set := newSet()
	var errs []error
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", file, err)})
			if mode == LoadModeFailFast {
				return set, errs
			}
			continue
		}

		name := file
		if l.prefix != "" {
			name = filepath.Join(l.prefix, filepath.FromSlash(file))
		}
		datasets, fileErrs := l.parse(data, name)
		errs = append(errs, fileErrs...)
		if len(fileErrs) > 0 && mode == LoadModeFailFast {
			return set, errs
		}

		for _, ds := range datasets {
			if prev, dup := set.origins[ds.Name]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicateDataset,
					Message: fmt.Sprintf("dataset %s declared in %s and %s", ds.Name, prev, name),
				})
				if mode == LoadModeFailFast {
					return set, errs
				}
				continue
			}
			set.put(ds, name)
		}
	}
	return set, errs
}

// Parse decodes the datasets declared in one manifest file.
func Parse(data []byte, filename string) ([]ingest.Dataset, error) {
	l := &loader{ctx: cuecontext.New(), mode: LoadModeFailFast}
	l.schema = l.ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := l.schema.Err(); err != nil {
		return nil, fromCUE(ErrCodeGeneric, err)
	}
	datasets, errs := l.parse(data, filename)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return datasets, nil
}

func (l *loader) parse(data []byte, filename string) ([]ingest.Dataset, []error) {
	v := l.ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, []error{fromCUE(ErrCodeLoadFailed, err)}
	}

	unified := l.schema.Unify(v)
	if err := unified.Err(); err != nil {
		return nil, []error{fromCUE(ErrCodeSchema, err)}
	}

	datasetsVal := unified.LookupPath(cue.ParsePath("dataset"))
	if !v.LookupPath(cue.ParsePath("dataset")).Exists() {
		return nil, []error{&LoadError{Code: ErrCodeNoDatasets, Message: fmt.Sprintf("%s declares no datasets", filename)}}
	}

	iter, err := datasetsVal.Fields()
	if err != nil {
		return nil, []error{fromCUE(ErrCodeSchema, err)}
	}

	var datasets []ingest.Dataset
	var errs []error
	for iter.Next() {
		ds, err := decodeDataset(iter.Value())
		if err != nil {
			errs = append(errs, err)
			if l.mode == LoadModeFailFast {
				return datasets, errs
			}
			continue
		}
		datasets = append(datasets, ds)
	}
	return datasets, errs
}

func decodeDataset(v cue.Value) (ingest.Dataset, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return ingest.Dataset{}, fromCUE(ErrCodeSchema, err)
	}
	var spec datasetSpec
	if err := v.Decode(&spec); err != nil {
		return ingest.Dataset{}, fromCUE(ErrCodeSchema, err)
	}

	ds, err := spec.toDataset()
	if err == nil {
		err = ds.Validate()
	}
	if err != nil {
		var cfgErr *ingest.ConfigError
		msg := err.Error()
		if errors.As(err, &cfgErr) {
			msg = fmt.Sprintf("dataset %s: %v", spec.Name, cfgErr.Err)
		}
		return ingest.Dataset{}, &LoadError{Code: ErrCodeInvalidDataset, Message: msg, Pos: v.Pos()}
	}
	return ds, nil
}

// fromCUE converts a CUE error to a LoadError carrying its first position.
func fromCUE(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if list := cueerrors.Errors(err); len(list) > 0 {
		le.Message = list[0].Error()
		le.Pos = list[0].Position()
	}
	return le
}

// FindCUEFiles walks root in fsys and returns all .cue file paths.
func FindCUEFiles(fsys fs.FS, root string) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".cue" {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
