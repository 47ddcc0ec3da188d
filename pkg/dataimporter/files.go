package dataimporter

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/transxchange"
)

var ErrUnsupportedFile = errors.New("unsupported file extension")

// TNDS archives are named after their region, such as Y.zip or NCSD.zip.
var regionArchive = regexp.MustCompile(`^[A-Za-z]{1,4}$`)

// DataFile is one XML document to import. Members of an archive are named
// archive:member.
type DataFile struct {
	Name   string
	Params engine.Params

	open func() (io.ReadCloser, error)
}

func (f DataFile) Open() (io.ReadCloser, error) {
	return f.open()
}

// NewDataFile wraps an in-memory document.
func NewDataFile(name string, contents string, params engine.Params) DataFile {
	return DataFile{
		Name:   name,
		Params: params,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(contents)), nil
		},
	}
}

// Bundle is the set of files a source expanded to. Close releases open
// archives and removes downloads.
type Bundle struct {
	Files []DataFile

	cleanup []func() error
}

func (b *Bundle) Close() error {
	var errs []error
	for i := len(b.cleanup) - 1; i >= 0; i-- {
		if err := b.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Discover expands a source into data files. A source may be a URL, a
// directory, an XML file or a zip archive of XML files.
func Discover(ctx context.Context, source string, params engine.Params) (*Bundle, error) {
	bundle := &Bundle{}

	if isValidUrl(source) {
		tempFile, fileExtension, err := tempDownloadFile(ctx, source)
		if err != nil {
			return nil, err
		}
		bundle.cleanup = append(bundle.cleanup, func() error {
			return os.Remove(tempFile)
		})

		if fileExtension == "" {
			fileExtension = path.Ext(source)
		}

		displayName := source
		if u, err := url.Parse(source); err == nil {
			displayName = u.Host + u.Path
		}

		if err := bundle.addFile(tempFile, displayName, fileExtension, params); err != nil {
			bundle.Close()
			return nil, err
		}

		return bundle, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := bundle.addFile(source, source, filepath.Ext(source), params); err != nil {
			bundle.Close()
			return nil, err
		}

		return bundle, nil
	}

	err = filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		extension := strings.ToLower(filepath.Ext(path))
		if extension != ".xml" && extension != ".zip" {
			log.Debug().Str("path", path).Msg("Ignoring file")
			return nil
		}

		return bundle.addFile(path, path, extension, params)
	})
	if err != nil {
		bundle.Close()
		return nil, err
	}

	return bundle, nil
}

func (b *Bundle) addFile(filePath string, displayName string, extension string, params engine.Params) error {
	switch strings.ToLower(extension) {
	case ".xml":
		b.Files = append(b.Files, DataFile{
			Name:   displayName,
			Params: params,
			open: func() (io.ReadCloser, error) {
				return os.Open(filePath)
			},
		})
	case ".zip":
		return b.addArchive(filePath, displayName, params)
	default:
		return fmt.Errorf("%w %s", ErrUnsupportedFile, extension)
	}

	return nil
}

func (b *Bundle) addArchive(filePath string, displayName string, params engine.Params) error {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", displayName, err)
	}
	b.cleanup = append(b.cleanup, archive.Close)

	zipParams := archiveParams(displayName, params)

	for _, zipFile := range archive.File {
		if zipFile.FileInfo().IsDir() || !strings.EqualFold(path.Ext(zipFile.Name), ".xml") {
			continue
		}

		zipFile := zipFile
		b.Files = append(b.Files, DataFile{
			Name:   fmt.Sprintf("%s:%s", displayName, zipFile.Name),
			Params: zipParams,
			open:   zipFile.Open,
		})
	}

	return nil
}

// archiveParams fills in the TNDS region from the archive name when it was
// not given.
func archiveParams(displayName string, params engine.Params) engine.Params {
	if params[transxchange.RegionParam] != "" {
		return params
	}

	base := strings.TrimSuffix(path.Base(filepath.ToSlash(displayName)), path.Ext(displayName))
	if !regionArchive.MatchString(base) {
		return params
	}

	inferred := engine.Params{}
	for name, value := range params {
		inferred[name] = value
	}
	inferred[transxchange.RegionParam] = strings.ToUpper(base)

	return inferred
}
